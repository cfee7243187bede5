package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
)

type mockProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// codeToToken maps authorization codes to access tokens the way GitHub
// would. The "ghi" code exchanges fine but its token is rejected by the
// profile endpoint.
var codeToToken = map[string]string{
	"abc": "tok1",
	"def": "tok2",
	"ghi": "tok3",
}

var tokenToProfile = map[string]mockProfile{
	"tok1": {ID: 42, Name: "alice"},
	"tok2": {ID: 43, Name: "bob"},
}

// MockGitHubServer emulates the two GitHub endpoints the login flow
// talks to, including GitHub's 200-with-error-body answers on the token
// endpoint and the mandatory User-Agent on the API.
type MockGitHubServer struct {
	server *httptest.Server
}

func NewMockGitHubServer() *MockGitHubServer {
	m := &MockGitHubServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", m.handleToken)
	mux.HandleFunc("/user", m.handleUser)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *MockGitHubServer) URL() string {
	return m.server.URL
}

func (m *MockGitHubServer) Close() {
	m.server.Close()
}

func (m *MockGitHubServer) handleToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Code         string `json:"code"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_request"})
		return
	}

	if body.ClientID != testClientID || body.ClientSecret != testClientSecret {
		json.NewEncoder(w).Encode(map[string]string{"error": "incorrect_client_credentials"})
		return
	}

	token, ok := codeToToken[body.Code]
	if !ok {
		json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (m *MockGitHubServer) handleUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// GitHub rejects requests without a User-Agent.
	if r.Header.Get("User-Agent") == "" {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "Request forbidden"})
		return
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Requires authentication"})
		return
	}

	profile, ok := tokenToProfile[strings.TrimPrefix(auth, "Bearer ")]
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
		return
	}

	json.NewEncoder(w).Encode(profile)
}
