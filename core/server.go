package core

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

const (
	stateCookieName   = "state"
	sessionCookieName = "token"
	stateCookieTTL    = 5 * time.Minute

	loginPath    = "/login"
	callbackPath = "/login/github/callback"
)

type loginView struct {
	LoginURL string
}

type successView struct {
	Token string
}

type errorView struct{}

type Server struct {
	authService *AuthService
	provider    AuthProvider
}

func NewServer(authService *AuthService, provider AuthProvider) *Server {
	return &Server{
		authService: authService,
		provider:    provider,
	}
}

// HandleLogin serves GET /login. A client that already carries a session
// cookie gets the success page straight away, without touching the
// provider. Everyone else gets the provider login link and a fresh,
// short-lived state cookie bound to this attempt.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		renderView(w, "success.html", successView{Token: cookie.Value})
		return
	}

	state := NewStateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(stateCookieTTL),
	})

	loginURL := s.provider.AuthorizeURL(callbackURI(r), state)
	renderView(w, "login.html", loginView{LoginURL: loginURL})
}

// HandleCallback serves GET /login/github/callback. Branches are
// evaluated strictly in order; the state check runs before any
// outbound call is made.
func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || !ValidStateToken(stateCookie.Value, query.Get("state")) {
		log.Printf("state mismatch on callback, restarting login")
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}
	clearCookie(w, stateCookieName)

	result, err := s.authService.Login(r.Context(), query.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderTokenExchange):
			// Exchange failures are retriable: show the login page again.
			log.Printf("code exchange failed: %v", err)
			renderView(w, "login.html", loginView{})
		case errors.Is(err, ErrProviderUserInfo):
			log.Printf("profile fetch failed: %v", err)
			renderView(w, "error.html", errorView{})
		default:
			log.Printf("login failed: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Helper functions

// callbackURI rebuilds the absolute callback URL from the incoming
// request, honoring X-Forwarded-Proto when behind a proxy.
func callbackURI(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + callbackPath
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func renderView(w http.ResponseWriter, name string, view interface{}) {
	if err := templates.ExecuteTemplate(w, name, view); err != nil {
		log.Printf("failed to render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func validateMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
