// Package atalogicstest provides a fake ATALOGICS API for tests.
//
// The server issues tokens at /oauth/token ("token-1", "token-2", ...),
// serves scripted replies for API routes, and records every request so
// tests can assert call counts and headers.
package atalogicstest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/atalogics/pkg/config"
)

// Reply is one scripted response.
type Reply struct {
	Status int
	Body   string
}

// Request is a recorded request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a fake ATALOGICS API.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	replies    map[string][]Reply
	requests   []Request
	tokenReply *Reply
	issued     int
}

// NewServer starts a fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{replies: make(map[string][]Reply)}

	r := chi.NewRouter()
	r.Post(config.TokenPath, s.token)
	r.HandleFunc("/api/*", s.api)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Config returns client credentials pointing at the fake server.
func (s *Server) Config() config.Config {
	cfg := config.Config{
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		ProductionBaseURL: s.URL,
		AutoRefresh:       true,
	}
	cfg.SetDefaults()
	return cfg
}

// Handle scripts the replies for method and path (e.g. "/api/v3/offers").
// Calls consume replies in order; the last reply repeats.
func (s *Server) Handle(method, path string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method+" "+path] = replies
}

// FailTokens makes the token endpoint answer with reply.
func (s *Server) FailTokens(reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenReply = &reply
}

// Calls returns how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	return len(s.Requests(method, path))
}

// TokenCalls returns how many token requests were made.
func (s *Server) TokenCalls() int {
	return s.Calls(http.MethodPost, config.TokenPath)
}

// Requests returns the recorded requests for method and path.
func (s *Server) Requests(method, path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.record(r)
	if s.tokenReply != nil {
		reply := *s.tokenReply
		s.mu.Unlock()
		write(w, reply)
		return
	}
	s.issued++
	n := s.issued
	s.mu.Unlock()

	write(w, Reply{
		Status: http.StatusOK,
		Body:   fmt.Sprintf(`{"access_token":"token-%d","token_type":"bearer","expires_in":7200}`, n),
	})
}

func (s *Server) api(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.record(r)
	key := r.Method + " " + r.URL.Path
	replies := s.replies[key]
	if len(replies) == 0 {
		s.mu.Unlock()
		write(w, Reply{Status: http.StatusNotFound, Body: `{"error":"not_found"}`})
		return
	}
	reply := replies[0]
	if len(replies) > 1 {
		s.replies[key] = replies[1:]
	}
	s.mu.Unlock()
	write(w, reply)
}

func write(w http.ResponseWriter, reply Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}
