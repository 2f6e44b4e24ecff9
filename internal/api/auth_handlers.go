package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
)

type SessionResponse struct {
	core.Session
	Token      string `json:"token,omitempty"`
	AuthError  string `json:"authError,omitempty"`
	OAuthReady bool   `json:"oauthEnabled"`
}

func (h *Handler) sessionResponse(r *http.Request, sess core.Session, token string) SessionResponse {
	resp := SessionResponse{Session: sess, Token: token, OAuthReady: h.oidc != nil}
	if sess.Fallback || authFailedFrom(r.Context()) {
		resp.AuthError = i18n.For(langFrom(r.Context())).AuthError
	}
	return resp
}

func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionResponse(r, sessionFrom(r.Context()), ""))
}

// AnonymousHandler always starts a fresh anonymous account. It is routed
// outside the session middleware so a caller without a cookie gets exactly
// one account.
func (h *Handler) AnonymousHandler(w http.ResponseWriter, r *http.Request) {
	sess, token, err := h.sessions.SignInAnonymously(r.Context())
	if err != nil {
		slog.Error("anonymous sign-in failed", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "auth_failed", i18n.For(langFrom(r.Context())).AuthError)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, h.sessionResponse(r, sess, token))
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current := sessionFrom(r.Context())
	sess, token, err := h.sessions.SignUp(r.Context(), current, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sess.UserID != current.UserID {
		h.queries.Forget(current.UserID)
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, h.sessionResponse(r, sess, token))
}

func (h *Handler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current := sessionFrom(r.Context())
	sess, token, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sess.UserID != current.UserID {
		h.queries.Forget(current.UserID)
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, h.sessionResponse(r, sess, token))
}

// SignOutHandler drops the session cookie. The next request starts a new
// anonymous session.
func (h *Handler) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	h.queries.Forget(sessionFrom(r.Context()).UserID)
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OAuthLoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		writeMessage(w, http.StatusNotFound, "oauth_disabled", i18n.For(langFrom(r.Context())).OAuthUnavailable)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		slog.Error("failed to create OAuth state", "error", err)
		writeMessage(w, http.StatusInternalServerError, "oauth_start_failed", i18n.For(langFrom(r.Context())).SignInStartFailed)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/oauth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		writeMessage(w, http.StatusNotFound, "oauth_disabled", i18n.For(langFrom(r.Context())).OAuthUnavailable)
		return
	}

	stateCookieValue, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(stateCookieValue.Value)) != 1 {
		writeMessage(w, http.StatusBadRequest, "invalid_oauth_state", i18n.For(langFrom(r.Context())).InvalidOAuthState)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/oauth", MaxAge: -1})

	identity, err := h.oidc.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.Warn("OAuth exchange failed", "error", err)
		writeMessage(w, http.StatusUnauthorized, "auth_failed", i18n.For(langFrom(r.Context())).AuthError)
		return
	}

	current := sessionFrom(r.Context())
	sess, token, err := h.sessions.SignInWithIdentity(r.Context(), current, identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sess.UserID != current.UserID {
		h.queries.Forget(current.UserID)
	}
	slog.Info("signed in with identity provider", "user_id", sess.UserID)
	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}
