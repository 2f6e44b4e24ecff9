package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/i18n"
	"xlerion.co/guide/internal/store"
)

type fakeGenerator struct {
	mu        sync.Mutex
	answer    string
	answerErr error
	text      string
	calls     int
}

func (g *fakeGenerator) GenerateAnswer(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.answer, g.answerErr
}

func (g *fakeGenerator) GenerateText(context.Context, string) (string, error) {
	return g.text, nil
}

func (g *fakeGenerator) set(answer string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answer = answer
}

type fakeProvider struct {
	identity auth.Identity
	code     string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (auth.Identity, error) {
	if code != p.code {
		return auth.Identity{}, errors.New("bad code")
	}
	return p.identity, nil
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	gen      *fakeGenerator
	sessions *core.SessionService
	queries  *core.QueryService
}

func newTestEnv(t *testing.T, oidc IdentityProvider) *testEnv {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", "xlerion-api-test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	gen := &fakeGenerator{text: "Recomendación."}
	quota := core.NewQuotaGate(s, 2, 4)
	sessions := core.NewSessionService(s, auth.NewIssuer("test-secret", time.Hour))

	queries := core.NewQueryService(gen, quota, s)
	h := NewHandler(Deps{
		Sessions: sessions,
		Queries:  queries,
		Quota:    quota,
		Admin:    core.NewAdminService(s),
		OIDC:     oidc,
	})
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)

	return &testEnv{server: server, client: newClient(t), gen: gen, sessions: sessions, queries: queries}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) session(t *testing.T) SessionResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(body, &sess))
	return sess
}

func decodeError(t *testing.T, body []byte) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestSession_IsStableAcrossRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.session(t)
	assert.NotEmpty(t, first.UserID)
	assert.False(t, first.IsRegistered)
	assert.False(t, first.OAuthReady)

	second := env.session(t)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestSubmitQuery_Text(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":"Hola"}`)

	resp, body := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "¿Qué tal?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view ViewResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, core.ViewText, view.Kind)
	assert.Equal(t, "Hola", view.Response)
	assert.Equal(t, "Recomendación.", view.Recommendation)
	assert.Nil(t, view.Chart)

	resp, body = env.do(t, http.MethodGet, "/api/queries/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current ViewResponse
	require.NoError(t, json.Unmarshal(body, &current))
	assert.Equal(t, view, current)
}

func TestSubmitQuery_Chart(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"chart","chartType":"BarChart","title":"T","data":"[{\"name\":\"A\",\"v\":1}]"}`)

	resp, body := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "Compara"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view ViewResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, core.ViewChart, view.Kind)
	assert.Empty(t, view.Response)
	require.NotNil(t, view.Chart)
	assert.Equal(t, "T", view.Chart.Title)
	assert.Equal(t, []string{"A"}, view.Chart.Categories)
}

func TestSubmitQuery_MalformedIsLocalized(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":`)

	resp, body := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q", Lang: "en"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view ViewResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, core.ViewFailed, view.Kind)
	assert.Equal(t, i18n.For(i18n.English).UnexpectedFormat, view.Error)
	assert.Empty(t, view.Response)
	assert.Nil(t, view.Chart)
}

func TestSubmitQuery_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":"Hola"}`)

	resp, body := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).QueryPlaceholder, decodeError(t, body).Message)

	for i := 0; i < 2; i++ {
		resp, _ = env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q", Lang: "en"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.English).QueryLimitReached(2), decodeError(t, body).Message)
	assert.Equal(t, 2, env.gen.calls)

	resp, body = env.do(t, http.MethodGet, "/api/quota", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status core.QuotaStatus
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 2, status.Count)
	assert.Equal(t, 2, status.Limit)
}

func TestSaveAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/queries/save", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).NoQueryOrResponse, decodeError(t, body).Message)

	env.gen.set(`{"type":"text","response":"Hola"}`)
	resp, _ = env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/queries/save", map[string]string{"lang": "en"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var saved store.SavedQuery
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, "q1", saved.Query)

	resp, body = env.do(t, http.MethodGet, "/api/queries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []HistoryItem
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Hola", history[0].Response)
	assert.Equal(t, "Recomendación.", history[0].SynthesizedRecommendation)

	resp, body = env.do(t, http.MethodGet, "/api/queries/"+saved.ID+"/share?lang=en", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := i18n.For(i18n.English)
	assert.Equal(t, msgs.YourQuery+"\nq1\n\n"+msgs.XlerionResponse+"\nHola\n\n"+msgs.RecommendationTitle+"\nRecomendación.", string(body))

	resp, _ = env.do(t, http.MethodGet, "/api/queries/nope/share", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryIsPerUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":"Hola"}`)
	env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "mine"})
	resp, _ := env.do(t, http.MethodPost, "/api/queries/save", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	other := &testEnv{server: env.server, client: newClient(t)}
	resp, body := other.do(t, http.MethodGet, "/api/queries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := string(body)
	es := i18n.For(i18n.Spanish)
	assert.Contains(t, page, es.ConsultButton)
	assert.Contains(t, page, es.QueriesToday)
	assert.Contains(t, page, es.NoSavedQueries)
	assert.NotContains(t, page, `href="/admin"`)

	resp, body = env.do(t, http.MethodGet, "/?lang=en", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), i18n.For(i18n.English).ConsultButton)

	// The choice sticks through the cookie.
	_, body = env.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, string(body), i18n.For(i18n.English).ConsultButton)
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.session(t)

	resp, _ := env.do(t, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body := env.do(t, http.MethodGet, "/api/admin/sources", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).AdminOnly, decodeError(t, body).Message)

	require.NoError(t, env.sessions.SetAdmin(context.Background(), sess.UserID, true))

	resp, body = env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `href="/admin"`)

	resp, body = env.do(t, http.MethodPost, "/api/admin/sources", core.SourceInput{Name: "x", URL: "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).InvalidSource, decodeError(t, body).Message)

	resp, body = env.do(t, http.MethodPost, "/api/admin/sources", core.SourceInput{
		Name: "DANE", URL: "https://www.dane.gov.co", APIKey: "secret-key",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created core.SourceView
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "secr…", created.APIKey)
	assert.NotContains(t, string(body), "secret-key")

	resp, body = env.do(t, http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "DANE")
	assert.NotContains(t, string(body), "secret-key")

	resp, _ = env.do(t, http.MethodDelete, "/api/admin/sources/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, "/api/admin/sources/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSignUpSignOutSignIn(t *testing.T) {
	env := newTestEnv(t, nil)
	anon := env.session(t)

	resp, body := env.do(t, http.MethodPost, "/api/auth/signup", CredentialsRequest{Email: "ana@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).WeakPassword, decodeError(t, body).Message)

	resp, body = env.do(t, http.MethodPost, "/api/auth/signup", CredentialsRequest{Email: "ana@example.com", Password: "secreto1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered SessionResponse
	require.NoError(t, json.Unmarshal(body, &registered))
	assert.Equal(t, anon.UserID, registered.UserID)
	assert.True(t, registered.IsRegistered)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/signout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEqual(t, anon.UserID, env.session(t).UserID)

	resp, body = env.do(t, http.MethodPost, "/api/auth/signin", CredentialsRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).InvalidCredentials, decodeError(t, body).Message)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/signin", CredentialsRequest{Email: "ana@example.com", Password: "secreto1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, anon.UserID, env.session(t).UserID)

	// A registered user gets the higher limit.
	resp, body = env.do(t, http.MethodGet, "/api/quota", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status core.QuotaStatus
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 4, status.Limit)
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodPost, "/api/auth/anonymous", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.Token)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/session", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+created.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var sess SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	assert.Equal(t, created.UserID, sess.UserID)
}

func TestOAuth(t *testing.T) {
	provider := &fakeProvider{code: "good", identity: auth.Identity{Subject: "idp|42", Email: "luis@example.com"}}
	env := newTestEnv(t, provider)
	anon := env.session(t)
	assert.True(t, anon.OAuthReady)

	resp, _ := env.do(t, http.MethodGet, "/auth/oauth/login", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	resp, body := env.do(t, http.MethodGet, "/auth/oauth/callback?state=forged&code=good", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.Spanish).InvalidOAuthState, decodeError(t, body).Message)

	resp, _ = env.do(t, http.MethodGet, "/auth/oauth/login", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err = url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state = location.Query().Get("state")

	resp, _ = env.do(t, http.MethodGet, "/auth/oauth/callback?state="+url.QueryEscape(state)+"&code=good", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	sess := env.session(t)
	assert.Equal(t, anon.UserID, sess.UserID)
	assert.True(t, sess.IsRegistered)
	assert.Equal(t, "luis@example.com", sess.Email)
}

func TestOAuthDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/auth/oauth/login?lang=en", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.English).OAuthUnavailable, decodeError(t, body).Message)
}

func TestDegradedRouter(t *testing.T) {
	server := httptest.NewServer(NewDegradedRouter([]string{"GEMINI_API_KEY", "SESSION_SECRET"}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","missing":["GEMINI_API_KEY","SESSION_SECRET"]}`, string(body))

	resp, err = http.Post(server.URL+"/api/queries?lang=en", "application/json", strings.NewReader(`{"question":"q"}`))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.English).ConfigError, decodeError(t, body).Message)

	resp, err = http.Get(server.URL + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), i18n.For(i18n.Spanish).ConfigError)
	assert.Contains(t, string(body), "GEMINI_API_KEY")
}

func TestLivePushesQuotaAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":"Hola"}`)
	env.session(t)

	base, err := url.Parse(env.server.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, c := range env.client.Jar.Cookies(base) {
		header.Add("Cookie", c.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.server.URL, "http")+"/api/live", header)
	require.NoError(t, err)
	defer conn.Close()

	next := func() LiveFrame {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame LiveFrame
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	seen := map[string]LiveFrame{}
	for len(seen) < 2 {
		frame := next()
		seen[frame.Type] = frame
	}
	require.NotNil(t, seen["quota"].Quota)
	assert.Equal(t, 0, seen["quota"].Quota.Count)
	assert.Empty(t, seen["history"].History)

	resp, _ := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/api/queries/save", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var quotaSeen, historySeen bool
	for !quotaSeen || !historySeen {
		frame := next()
		switch frame.Type {
		case "quota":
			if frame.Quota.Count == 1 {
				quotaSeen = true
			}
		case "history":
			if len(frame.History) == 1 {
				assert.Equal(t, "q", frame.History[0].Query)
				historySeen = true
			}
		}
	}
}

func TestLanguageToggleKeepsQuotaCount(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.set(`{"type":"text","response":"Hola"}`)
	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	quotaCount := func() int {
		t.Helper()
		resp, body := env.do(t, http.MethodGet, "/api/quota", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var status core.QuotaStatus
		require.NoError(t, json.Unmarshal(body, &status))
		return status.Count
	}

	for _, lang := range []i18n.Lang{i18n.English, i18n.Spanish} {
		resp, body := env.do(t, http.MethodGet, "/?lang="+string(lang), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := string(body)
		assert.Contains(t, page, i18n.For(lang).QueryLimitReached(2), lang)
		assert.Contains(t, page, `<span id="quota-count">2</span>`, lang)
		assert.Equal(t, 2, quotaCount(), lang)
	}
	assert.Equal(t, 2, env.gen.calls)
}

func TestAnonymousSignInCreatesOneAccount(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/auth/anonymous", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(body, &created))

	var sessionCookies int
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			sessionCookies++
		}
	}
	assert.Equal(t, 1, sessionCookies)
	assert.Equal(t, created.UserID, env.session(t).UserID)
}

func TestSignInForgetsReplacedView(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodPost, "/api/auth/signup", CredentialsRequest{Email: "ana@example.com", Password: "secreto1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/api/auth/signout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	guest := env.session(t)
	env.gen.set(`{"type":"text","response":"Hola"}`)
	resp, _ = env.do(t, http.MethodPost, "/api/queries", SubmitQueryRequest{Question: "q"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, core.ViewText, env.queries.Current(guest.UserID).Kind)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/signin", CredentialsRequest{Email: "ana@example.com", Password: "secreto1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.ViewIdle, env.queries.Current(guest.UserID).Kind)
}

func TestInvalidBodyIsLocalized(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := env.client.Post(env.server.URL+"/api/queries?lang=en", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, i18n.For(i18n.English).InvalidRequest, decodeError(t, body).Message)
}
