package core_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EkkoG/rtabby-web-api2/core"
	"github.com/EkkoG/rtabby-web-api2/core/providers"
	"github.com/EkkoG/rtabby-web-api2/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupTestServer() (*core.Server, *providers.MockProvider, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	provider := providers.NewMockProvider()
	authService := core.NewAuthService(repo, provider)
	return core.NewServer(authService, provider), provider, repo
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestHandleLogin_IssuesStateCookie(t *testing.T) {
	server, _, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()

	server.HandleLogin(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	state := findCookie(resp, "state")
	if assert.NotNil(t, state) {
		assert.NoError(t, uuid.Validate(state.Value))
		assert.True(t, state.HttpOnly)
		assert.Equal(t, "/", state.Path)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), state.Expires, time.Minute)

		// The login link must carry the same state the cookie holds.
		assert.Contains(t, w.Body.String(), state.Value)
	}
}

func TestHandleLogin_CallbackURIFromRequest(t *testing.T) {
	server, provider, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()

	server.HandleLogin(w, req)

	assert.Equal(t, 1, provider.AuthorizeURLCalls)
	assert.Contains(t, w.Body.String(), "https://example.com/login/github/callback")
}

func TestHandleLogin_SessionShortCircuit(t *testing.T) {
	server, provider, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "existing-session-token"})
	w := httptest.NewRecorder()

	server.HandleLogin(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "existing-session-token")

	// The fast path never touches the provider and issues no state.
	assert.Equal(t, 0, provider.AuthorizeURLCalls)
	assert.Equal(t, 0, provider.ExchangeCodeCalls)
	assert.Nil(t, findCookie(resp, "state"))
}

func TestHandleLogin_EmptySessionCookieStartsFlow(t *testing.T) {
	server, _, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	w := httptest.NewRecorder()

	server.HandleLogin(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, findCookie(resp, "state"))
}

func TestHandleLogin_MethodNotAllowed(t *testing.T) {
	server, _, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()

	server.HandleLogin(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleCallback_Success(t *testing.T) {
	server, _, repo := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=abc&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	token := findCookie(resp, "token")
	if assert.NotNil(t, token) {
		assert.NoError(t, uuid.Validate(token.Value))
		assert.True(t, token.HttpOnly)
		assert.Equal(t, "/", token.Path)
		assert.True(t, token.Expires.IsZero(), "session cookie must not expire")

		user, err := repo.FindByProviderID(context.Background(), "42", core.PlatformGitHub)
		assert.NoError(t, err)
		assert.Equal(t, "alice", user.Name)
		assert.Equal(t, token.Value, user.Token)
	}

	// The state cookie is consumed exactly once.
	state := findCookie(resp, "state")
	if assert.NotNil(t, state) {
		assert.Empty(t, state.Value)
		assert.Negative(t, state.MaxAge)
	}
}

func TestHandleCallback_RepeatLoginReusesToken(t *testing.T) {
	server, _, repo := setupTestServer()

	doCallback := func() *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=abc&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
		w := httptest.NewRecorder()
		server.HandleCallback(w, req)
		return w.Result()
	}

	first := findCookie(doCallback(), "token")
	second := findCookie(doCallback(), "token")

	assert.NotNil(t, first)
	assert.NotNil(t, second)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, repo.Len())
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	server, provider, repo := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=abc&state=s2", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// No outbound call may happen after a failed state check.
	assert.Equal(t, 0, provider.ExchangeCodeCalls)
	assert.Equal(t, 0, provider.FetchUserCalls)
	assert.Equal(t, 0, repo.Len())
}

func TestHandleCallback_MissingStateCookie(t *testing.T) {
	server, provider, repo := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=abc&state=s1", nil)
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 0, provider.ExchangeCodeCalls)
	assert.Equal(t, 0, repo.Len())
}

func TestHandleCallback_ExchangeFailureRendersLogin(t *testing.T) {
	server, _, repo := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=bad_code&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "Sign in")
	assert.Nil(t, findCookie(resp, "token"))
	assert.Equal(t, 0, repo.Len())
}

func TestHandleCallback_ProfileFailureRendersErrorPage(t *testing.T) {
	server, _, repo := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code="+providers.BadProfileCode+"&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, w.Body.String(), "Login failed")
	assert.Nil(t, findCookie(resp, "token"))
	assert.Equal(t, 0, repo.Len())
}

func TestHandleCallback_StorageFailure(t *testing.T) {
	provider := providers.NewMockProvider()
	repo := &brokenRepository{err: errors.New("connection refused")}
	server := core.NewServer(core.NewAuthService(repo, provider), provider)

	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?code=abc&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Nil(t, findCookie(w.Result(), "token"))
}

func TestHandleCallback_MethodNotAllowed(t *testing.T) {
	server, _, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodPost, "/login/github/callback?code=abc&state=s1", nil)
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleHealth(t *testing.T) {
	server, _, _ := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestHandleCallback_StateCheckBeforeMissingCode(t *testing.T) {
	server, provider, _ := setupTestServer()

	// No code at all: the state check still runs first, and the empty
	// code then fails the exchange softly.
	req := httptest.NewRequest(http.MethodGet, "/login/github/callback?state=s1", nil)
	req.AddCookie(&http.Cookie{Name: "state", Value: "s1"})
	w := httptest.NewRecorder()

	server.HandleCallback(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, provider.ExchangeCodeCalls)
	assert.Contains(t, w.Body.String(), "Sign in")
}
