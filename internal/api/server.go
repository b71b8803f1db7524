// Package api exposes the assessment engine over HTTP. One Server tracks the
// live session machines and finalizes them all on shutdown so in-progress
// answers survive an abrupt exit.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/engine/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// SessionFactory builds a fresh machine for one identity.
type SessionFactory func(identity string) *session.Machine

type Server struct {
	mu         sync.Mutex
	sessions   map[string]*session.Machine
	newSession SessionFactory
	token      string
	logger     logger.Logger
}

func NewServer(newSession SessionFactory, token string, log logger.Logger) *Server {
	return &Server{
		sessions:   map[string]*session.Machine{},
		newSession: newSession,
		token:      token,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	if s.token != "" {
		r.Use(BearerAuth(s.token))
	}

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Post("/{id}/start", s.handleStart)
		r.Get("/{id}/questions", s.handleQuestions)
		r.Get("/{id}/progress", s.handleProgress)
		r.Post("/{id}/answers", s.handleAnswer)
		r.Post("/{id}/complete", s.handleCompleteDelivery)
		r.Post("/{id}/essay", s.handleSubmitEssay)
		r.Post("/{id}/skip", s.handleSkipSupplemental)
		r.Post("/{id}/process", s.handleCompleteProcessing)
		r.Get("/{id}/result", s.handleResult)
		r.Post("/{id}/cancel", s.handleCancel)
	})

	return r
}

func (s *Server) register(m *session.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[m.ID()] = m
}

func (s *Server) lookup(id string) (*session.Machine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[id]
	return m, ok
}

// FinalizeAll runs each live machine's exit hook. Called on every shutdown
// path, including OS signals.
func (s *Server) FinalizeAll(ctx context.Context) {
	s.mu.Lock()
	machines := make([]*session.Machine, 0, len(s.sessions))
	for _, m := range s.sessions {
		machines = append(machines, m)
	}
	s.mu.Unlock()

	for _, m := range machines {
		m.Finalize(ctx)
	}
	s.logger.Info("sessions finalized", map[string]interface{}{
		"count": len(machines),
	})
}
