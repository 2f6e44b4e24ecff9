package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"xlerion.co/guide/internal/core"
)

func (h *Handler) ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := h.admin.ListSources(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *Handler) CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	var req core.SourceInput
	if !decodeJSON(w, r, &req) {
		return
	}

	src, err := h.admin.CreateSource(r.Context(), sessionFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

func (h *Handler) DeleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	err := h.admin.DeleteSource(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "sourceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
