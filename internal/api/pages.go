package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"otherLang": func(lang i18n.Lang) i18n.Lang {
		if lang == i18n.English {
			return i18n.Spanish
		}
		return i18n.English
	},
	"chartArgs": func(msgs i18n.Messages, chart *core.ChartView) chartArgs {
		return chartArgs{Msgs: msgs, Chart: chart}
	},
}).ParseFS(templateFS, "templates/*.html"))

type chartArgs struct {
	Msgs  i18n.Messages
	Chart *core.ChartView
}

type pageData struct {
	Lang         i18n.Lang
	Msgs         i18n.Messages
	Session      core.Session
	AuthError    bool
	OAuthEnabled bool

	Quota      core.QuotaStatus
	QuotaError string
	LimitMsg   string

	View    ViewResponse
	History []HistoryItem
	Error   string

	Sources []core.SourceView
}

func renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) basePage(r *http.Request) pageData {
	lang := langFrom(r.Context())
	sess := sessionFrom(r.Context())
	return pageData{
		Lang:         lang,
		Msgs:         i18n.For(lang),
		Session:      sess,
		AuthError:    sess.Fallback || authFailedFrom(r.Context()),
		OAuthEnabled: h.oidc != nil,
	}
}

// IndexHandler renders the query page. Quota and history are loaded
// concurrently; a failure in either only blanks that panel.
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(r)
	ctx := r.Context()

	var g errgroup.Group
	g.Go(func() error {
		status, err := h.quota.Status(ctx, data.Session)
		if err != nil {
			slog.Warn("page quota lookup failed", "user_id", data.Session.UserID, "error", err)
			data.QuotaError = data.Msgs.DBNotReady
			return nil
		}
		data.Quota = status
		if status.Exhausted() {
			data.LimitMsg = data.Msgs.QueryLimitReached(status.Limit)
		}
		return nil
	})
	g.Go(func() error {
		queries, err := h.queries.History(ctx, data.Session.UserID)
		if err != nil {
			slog.Warn("page history lookup failed", "user_id", data.Session.UserID, "error", err)
			data.Error = data.Msgs.DBNotReady
			return nil
		}
		data.History = renderHistory(queries)
		return nil
	})
	g.Wait()

	data.View = renderView(data.Lang, h.queries.Current(data.Session.UserID))
	renderPage(w, http.StatusOK, "index.html", data)
}

// AdminPageHandler renders the sources console. Non-admins get a 404 so the
// page is not discoverable.
func (h *Handler) AdminPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.basePage(r)
	if !data.Session.IsAdmin {
		http.NotFound(w, r)
		return
	}

	sources, err := h.admin.ListSources(r.Context(), data.Session)
	if err != nil {
		slog.Error("failed to list sources", "error", err)
		data.Error = data.Msgs.DBNotReady
	}
	data.Sources = sources
	renderPage(w, http.StatusOK, "admin.html", data)
}
