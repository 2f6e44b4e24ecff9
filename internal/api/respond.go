package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
	"xlerion.co/guide/internal/store"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError maps a service error to a status code and a message in the
// request's language.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	msgs := i18n.For(langFrom(r.Context()))

	if limitErr, ok := core.IsQuotaError(err); ok {
		writeMessage(w, http.StatusTooManyRequests, "quota_exceeded", msgs.QueryLimitReached(limitErr.Limit))
		return
	}

	switch {
	case errors.Is(err, core.ErrEmptyQuery):
		writeMessage(w, http.StatusBadRequest, "empty_query", msgs.QueryPlaceholder)
	case errors.Is(err, core.ErrNothingToSave):
		writeMessage(w, http.StatusBadRequest, "nothing_to_save", msgs.NoQueryOrResponse)
	case errors.Is(err, core.ErrSaveFailed):
		slog.Error("save failed", "error", err)
		writeMessage(w, http.StatusBadGateway, "save_failed", msgs.SaveError)
	case errors.Is(err, core.ErrNotAdmin):
		writeMessage(w, http.StatusForbidden, "not_admin", msgs.AdminOnly)
	case errors.Is(err, core.ErrInvalidSource):
		writeMessage(w, http.StatusBadRequest, "invalid_source", msgs.InvalidSource)
	case errors.Is(err, core.ErrSourceNotFound):
		writeMessage(w, http.StatusNotFound, "source_not_found", msgs.SourceNotFound)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid_credentials", msgs.InvalidCredentials)
	case errors.Is(err, store.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "email_taken", msgs.EmailTaken)
	case errors.Is(err, auth.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, "weak_password", msgs.WeakPassword)
	case errors.Is(err, auth.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, "invalid_email", msgs.InvalidEmail)
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "query_not_found", msgs.QueryNotFound)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "store_unavailable", msgs.DBNotReady)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusBadRequest, "invalid_body", i18n.For(langFrom(r.Context())).InvalidRequest)
		return false
	}
	return true
}
