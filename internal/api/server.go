// Package api exposes the chat service over HTTP: a health endpoint and
// one websocket route per client session.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/session"
)

const (
	serviceName    = "pythia"
	serviceVersion = "1.0.0"
)

// Responder produces one reply per user utterance. Implemented by
// agent.Agent.
type Responder interface {
	Respond(ctx context.Context, history []llm.Message, query string, onPartial llm.StreamCallback) (string, error)
}

// Server hosts the websocket chat endpoint.
type Server struct {
	server   *http.Server
	sessions *session.Registry
	agent    Responder
}

// NewServer wires the router, middleware, and handlers.
func NewServer(port string, sessions *session.Registry, agent Responder) *Server {
	s := &Server{
		sessions: sessions,
		agent:    agent,
	}

	router := mux.NewRouter()
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/ws/{session_id}", s.handleChat).Methods("GET")

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}
	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"sessions": s.sessions.Count(),
	})
}
