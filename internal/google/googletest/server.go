// Package googletest provides a mock Google OAuth2 token endpoint and
// credential fixtures for tests.
//
// The server answers the authorization_code and refresh_token grants with
// canned responses keyed by code or refresh token. Unknown values produce
// an invalid_grant error payload, like the real endpoint.
package googletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

// TokenResponse is the JSON body returned for a successful grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrorResponse is the JSON body returned for a failed grant.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Server is a mock OAuth2 token endpoint.
type Server struct {
	*httptest.Server

	mu        sync.RWMutex
	codes     map[string]any
	refreshes map[string]any
	requests  atomic.Int64
}

// NewServer starts a mock token endpoint at /token.
func NewServer() *Server {
	s := &Server{
		codes:     make(map[string]any),
		refreshes: make(map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)

	s.Server = httptest.NewServer(mux)
	return s
}

// TokenURL returns the URL of the token endpoint.
func (s *Server) TokenURL() string {
	return s.URL + "/token"
}

// AuthURL returns a fake authorization endpoint URL. Nothing is served
// there; it only appears in generated authorization URLs.
func (s *Server) AuthURL() string {
	return s.URL + "/auth"
}

// AddCode registers the response for an authorization code. resp is
// either a TokenResponse or an ErrorResponse.
func (s *Server) AddCode(code string, resp any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = resp
}

// AddRefreshToken registers the response for a refresh token grant.
func (s *Server) AddRefreshToken(refreshToken string, resp any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes[refreshToken] = resp
}

// Requests returns the number of token requests served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}

	var (
		resp any
		ok   bool
	)
	s.mu.RLock()
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		resp, ok = s.codes[r.PostForm.Get("code")]
	case "refresh_token":
		resp, ok = s.refreshes[r.PostForm.Get("refresh_token")]
	default:
		s.mu.RUnlock()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unsupported_grant_type"})
		return
	}
	s.mu.RUnlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_grant", ErrorDescription: "Bad Request"})
		return
	}

	switch v := resp.(type) {
	case ErrorResponse:
		writeJSON(w, http.StatusBadRequest, v)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CredentialsJSON returns a "web" OAuth client file pointing at the mock
// server's endpoints.
func (s *Server) CredentialsJSON() []byte {
	return []byte(fmt.Sprintf(`{
  "web": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "gcalauth-test",
    "auth_uri": %q,
    "token_uri": %q,
    "client_secret": "test-client-secret",
    "redirect_uris": ["http://localhost:8080/auth/callback"]
  }
}`, s.AuthURL(), s.TokenURL()))
}

// WriteCredentials writes CredentialsJSON to rel under root and returns
// the relative path, suitable for GOOGLE_APPLICATION_CREDENTIALS.
func (s *Server) WriteCredentials(t testing.TB, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("failed to create credentials dir: %v", err)
	}
	if err := os.WriteFile(path, s.CredentialsJSON(), 0o600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return rel
}
