package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/models"
)

type createSessionRequest struct {
	Identity string `json:"identity"`
}

type createSessionResponse struct {
	SessionID         string     `json:"sessionId"`
	State             string     `json:"state"`
	PendingCheckpoint bool       `json:"pendingCheckpoint"`
	CheckpointSavedAt *time.Time `json:"checkpointSavedAt,omitempty"`
}

type startRequest struct {
	Resume bool `json:"resume"`
}

type essayRequest struct {
	Content  string `json:"content"`
	PromptID string `json:"promptId"`
	Language string `json:"language"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	m := s.newSession(req.Identity)
	s.register(m)

	resp := createSessionResponse{
		SessionID: m.ID(),
		State:     string(m.State()),
	}
	if cp, err := m.PendingCheckpoint(r.Context()); err == nil && cp != nil {
		resp.PendingCheckpoint = true
		if !cp.SavedAt.IsZero() {
			resp.CheckpointSavedAt = &cp.SavedAt
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	if err := m.Start(r.Context(), req.Resume); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": m.Questions(),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var resp models.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if resp.QuestionID == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "questionId is required")
		return
	}

	if err := m.Answer(r.Context(), resp); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleCompleteDelivery(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err := m.CompleteDelivery(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleSubmitEssay(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req essayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	if err := m.SubmitSupplemental(r.Context(), req.Content, req.PromptID, req.Language); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleSkipSupplemental(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err := m.SkipSupplemental(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleCompleteProcessing(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err := m.CompleteProcessing(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	result, err := m.Result()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err := m.Cancel(); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

// writeEngineError maps a typed engine error onto an HTTP status. Guard
// violations are conflicts, bad input is a 400, transient upstream failures
// surface as 502 so the client knows a retry is worthwhile.
func writeEngineError(w http.ResponseWriter, err error) {
	var stdErr *apperrors.StandardError
	if !errors.As(err, &stdErr) {
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case stdErr.Code == apperrors.ErrCodeUnknownQuestion:
		status = http.StatusBadRequest
	case stdErr.Code == apperrors.ErrCodeInvalidTransition,
		stdErr.Code == apperrors.ErrCodeIncompleteDelivery:
		status = http.StatusConflict
	case stdErr.Retryable:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]interface{}{"error": stdErr})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
