package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
	"xlerion.co/guide/internal/store"
)

// IdentityProvider is the OAuth sign-in flow. It is nil when no provider is
// configured.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.Identity, error)
}

type Deps struct {
	Sessions      *core.SessionService
	Queries       *core.QueryService
	Quota         *core.QuotaGate
	Admin         *core.AdminService
	OIDC          IdentityProvider
	SessionTTL    time.Duration
	SecureCookies bool
}

type Handler struct {
	sessions      *core.SessionService
	queries       *core.QueryService
	quota         *core.QuotaGate
	admin         *core.AdminService
	oidc          IdentityProvider
	sessionTTL    time.Duration
	secureCookies bool
	upgrader      websocket.Upgrader
}

func NewHandler(d Deps) *Handler {
	ttl := d.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}
	return &Handler{
		sessions:      d.Sessions,
		queries:       d.Queries,
		quota:         d.Quota,
		admin:         d.Admin,
		oidc:          d.OIDC,
		sessionTTL:    ttl,
		secureCookies: d.SecureCookies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// ViewResponse is the JSON form of a core.View with every message already
// translated.
type ViewResponse struct {
	Kind                 core.ViewKind   `json:"kind"`
	Question             string          `json:"question,omitempty"`
	Response             string          `json:"response,omitempty"`
	Recommendation       string          `json:"recommendation,omitempty"`
	RecommendationStatus string          `json:"recommendationStatus,omitempty"`
	Chart                *core.ChartView `json:"chart,omitempty"`
	Error                string          `json:"error,omitempty"`
	Warning              string          `json:"warning,omitempty"`
}

func renderView(lang i18n.Lang, v core.View) ViewResponse {
	msgs := i18n.For(lang)
	resp := ViewResponse{
		Kind:                 v.Kind,
		Question:             v.Question,
		Response:             v.Text,
		Recommendation:       v.Recommendation,
		RecommendationStatus: string(v.RecommendationState),
	}

	switch v.Kind {
	case core.ViewLoading:
		resp.Response = msgs.Consulting
	case core.ViewChart:
		chart := core.SelectChart(string(v.Chart.Type), v.Chart.Title, v.Chart.Records)
		resp.Chart = &chart
	case core.ViewFailed:
		switch v.Failure {
		case core.FailureMalformed:
			resp.Error = msgs.UnexpectedFormat
		case core.FailureNoAnswer:
			resp.Error = msgs.NoClearResponse
		default:
			resp.Error = msgs.APIError
		}
	}

	if v.RecommendationState == core.RecommendationErrored {
		resp.Recommendation = msgs.RecommendationError
	}
	if v.QuotaNotRecorded {
		resp.Warning = msgs.QuotaWriteError
	}
	return resp
}

// HistoryItem is a saved query plus its chart laid out for drawing.
type HistoryItem struct {
	store.SavedQuery
	Chart *core.ChartView `json:"chart,omitempty"`
}

func renderHistory(queries []store.SavedQuery) []HistoryItem {
	items := make([]HistoryItem, 0, len(queries))
	for _, q := range queries {
		item := HistoryItem{SavedQuery: q}
		if len(q.ChartData) > 0 {
			records, err := core.ParseChartData(q.ChartData)
			if err != nil {
				slog.Warn("saved chart data is unreadable", "query_id", q.ID, "error", err)
			}
			chart := core.SelectChart(q.ChartType, q.ChartTitle, records)
			item.Chart = &chart
		}
		items = append(items, item)
	}
	return items
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type SubmitQueryRequest struct {
	Question string `json:"question"`
	Lang     string `json:"lang,omitempty"`
}

func (h *Handler) SubmitQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = withLang(r, req.Lang)
	sess := sessionFrom(r.Context())
	lang := langFrom(r.Context())

	view, err := h.queries.Submit(r.Context(), sess, lang, req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderView(lang, view))
}

func (h *Handler) CurrentQueryHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, renderView(langFrom(r.Context()), h.queries.Current(sess.UserID)))
}

func (h *Handler) SaveQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lang string `json:"lang,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	r = withLang(r, req.Lang)

	saved, err := h.queries.Save(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) ListQueriesHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	queries, err := h.queries.History(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderHistory(queries))
}

func (h *Handler) ShareQueryHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q, err := h.queries.Find(r.Context(), sess.UserID, chi.URLParam(r, "queryID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(core.ShareText(langFrom(r.Context()), q)))
}

func (h *Handler) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.quota.Status(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
