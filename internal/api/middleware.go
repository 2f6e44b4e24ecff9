package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
)

const (
	sessionCookie = "xlerion_session"
	langCookie    = "xlerion_lang"
	stateCookie   = "xlerion_oauth_state"
)

type contextKey int

const (
	sessionKey contextKey = iota
	authFailedKey
	langKey
)

func sessionFrom(ctx context.Context) core.Session {
	sess, _ := ctx.Value(sessionKey).(core.Session)
	return sess
}

func authFailedFrom(ctx context.Context) bool {
	failed, _ := ctx.Value(authFailedKey).(bool)
	return failed
}

func langFrom(ctx context.Context) i18n.Lang {
	if lang, ok := ctx.Value(langKey).(i18n.Lang); ok {
		return lang
	}
	return i18n.Default
}

// LanguageMiddleware picks the request language from the "lang" query
// parameter, then the language cookie, then the default. An explicit
// parameter is remembered in the cookie.
func LanguageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.Default
		if code := r.URL.Query().Get("lang"); code != "" {
			lang = i18n.Parse(code)
			http.SetCookie(w, &http.Cookie{
				Name:     langCookie,
				Value:    string(lang),
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				SameSite: http.SameSiteLaxMode,
			})
		} else if c, err := r.Cookie(langCookie); err == nil {
			lang = i18n.Parse(c.Value)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), langKey, lang)))
	})
}

// withLang overrides the request language with an explicit body value.
func withLang(r *http.Request, code string) *http.Request {
	if code == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), langKey, i18n.Parse(code)))
}

func tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// SessionMiddleware attaches a session to every request, starting an
// anonymous one when the caller has none. When the store cannot create an
// account the request continues with a fallback identifier.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, token, err := h.sessions.Bootstrap(r.Context(), tokenFrom(r))
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		if err != nil {
			if !errors.Is(err, core.ErrAuthFallback) {
				slog.Error("session bootstrap failed", "error", err)
			}
			ctx = context.WithValue(ctx, authFailedKey, true)
		}
		if token != "" {
			h.setSessionCookie(w, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
