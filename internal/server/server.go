// Package server exposes the HTTP API for content, quizzes and learner
// profiles. Authentication happens upstream; handlers read the caller
// identity from trusted headers.
package server

import (
	"context"
	"net/http"

	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/learner"
	"github.com/edumint/edumint/internal/quiz"
)

// Config holds the services the server dispatches to.
type Config struct {
	Contents  *content.Service
	Pipeline  *content.Pipeline
	Generator *quiz.Generator
	Evaluator *quiz.Evaluator
	Quizzes   *quiz.Reader
	Learners  learner.Store

	// Events streams pipeline outcomes to websocket subscribers. Optional.
	Events *Hub

	// UploadDir is where uploaded files are written before extraction.
	UploadDir string

	// Ready reports backend connectivity for the readiness probe. Optional.
	Ready func(ctx context.Context) error
}

// Server is the HTTP API.
type Server struct {
	cfg Config
}

// New creates a server around the given services.
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/v1/content", s.withPrincipal(s.handleCreateContent))
	mux.HandleFunc("GET /api/v1/content", s.withPrincipal(s.handleListContent))
	mux.HandleFunc("GET /api/v1/content/stats", s.withPrincipal(s.handleCreatorStats))
	mux.HandleFunc("GET /api/v1/content/{id}", s.withPrincipal(s.handleGetContent))
	mux.HandleFunc("DELETE /api/v1/content/{id}", s.withPrincipal(s.handleDeleteContent))
	mux.HandleFunc("POST /api/v1/content/{id}/verify", s.withPrincipal(s.handleVerifyContent))
	mux.HandleFunc("POST /api/v1/content/{id}/quiz", s.withPrincipal(s.handleGenerateQuiz))
	mux.HandleFunc("GET /api/v1/content/{id}/quiz", s.withPrincipal(s.handleContentQuizzes))

	mux.HandleFunc("GET /api/v1/quiz/{id}/review", s.withPrincipal(s.handleReviewQuiz))
	mux.HandleFunc("POST /api/v1/quiz/{id}/evaluate", s.withPrincipal(s.handleEvaluateQuiz))

	mux.HandleFunc("GET /api/v1/learner/profile", s.withPrincipal(s.handleProfile))

	if s.cfg.Events != nil {
		mux.Handle("GET /api/v1/events", s.cfg.Events)
	}

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		if err := s.cfg.Ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
