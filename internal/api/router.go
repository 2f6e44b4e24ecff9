package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xlerion.co/guide/internal/i18n"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(LanguageMiddleware)

	r.Get("/api/health", h.HealthHandler)
	r.Post("/api/auth/anonymous", h.AnonymousHandler)

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/", h.IndexHandler)
		r.Get("/admin", h.AdminPageHandler)

		r.Get("/auth/oauth/login", h.OAuthLoginHandler)
		r.Get("/auth/oauth/callback", h.OAuthCallbackHandler)

		r.Route("/api", func(r chi.Router) {
			r.Get("/session", h.SessionHandler)
			r.Post("/auth/signup", h.SignUpHandler)
			r.Post("/auth/signin", h.SignInHandler)
			r.Post("/auth/signout", h.SignOutHandler)

			r.Get("/quota", h.QuotaHandler)
			r.Get("/live", h.LiveHandler)

			r.Post("/queries", h.SubmitQueryHandler)
			r.Get("/queries", h.ListQueriesHandler)
			r.Get("/queries/current", h.CurrentQueryHandler)
			r.Post("/queries/save", h.SaveQueryHandler)
			r.Get("/queries/{queryID}/share", h.ShareQueryHandler)

			r.Get("/admin/sources", h.ListSourcesHandler)
			r.Post("/admin/sources", h.CreateSourceHandler)
			r.Delete("/admin/sources/{sourceID}", h.DeleteSourceHandler)
		})
	})

	return r
}

// NewDegradedRouter serves the configuration error page and answers every
// API call with 503 until the missing keys are provided.
func NewDegradedRouter(missing []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(LanguageMiddleware)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "missing": missing})
	})
	r.HandleFunc("/api/*", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusServiceUnavailable, "config_error", i18n.For(langFrom(r.Context())).ConfigError)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		lang := langFrom(r.Context())
		data := struct {
			Lang    i18n.Lang
			Msgs    i18n.Messages
			Missing []string
		}{Lang: lang, Msgs: i18n.For(lang), Missing: missing}
		renderPage(w, http.StatusServiceUnavailable, "config_error.html", data)
	})

	return r
}
