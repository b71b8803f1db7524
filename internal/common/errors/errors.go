// Package errors provides standardized error handling for the assessment engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transient network failures at the backend boundary. All retryable.
	ErrCodeQuestionFetchFailed ErrorCode = "QUESTION_FETCH_FAILED"
	ErrCodeSubmissionFailed    ErrorCode = "SUBMISSION_FAILED"
	ErrCodeEssaySubmitFailed   ErrorCode = "ESSAY_SUBMIT_FAILED"
	ErrCodeResultFetchFailed   ErrorCode = "RESULT_FETCH_FAILED"

	// Local guard violations and data problems. Never retryable, never sent
	// to the network.
	ErrCodeIncompleteDelivery ErrorCode = "INCOMPLETE_DELIVERY"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnknownQuestion    ErrorCode = "UNKNOWN_QUESTION"
	ErrCodeCheckpointInvalid  ErrorCode = "CHECKPOINT_INVALID"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewQuestionFetchFailedError creates a retryable question fetch error.
func NewQuestionFetchFailedError(instrument string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuestionFetchFailed,
		Message:   "Question set fetch failed",
		Details:   fmt.Sprintf("instrument: %s, error: %s", instrument, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionFailedError creates a retryable response submission error.
func NewSubmissionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFailed,
		Message:   "Response submission failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEssaySubmitFailedError creates a retryable essay submission error.
func NewEssaySubmitFailedError(assessmentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEssaySubmitFailed,
		Message:   "Supplemental essay submission failed",
		Details:   fmt.Sprintf("assessmentId: %s, error: %s", assessmentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultFetchFailedError creates a retryable result fetch error.
func NewResultFetchFailedError(assessmentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultFetchFailed,
		Message:   "Computed result fetch failed",
		Details:   fmt.Sprintf("assessmentId: %s, error: %s", assessmentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncompleteDeliveryError creates a non-retryable guard violation carrying
// the count of unanswered questions in its metadata.
func NewIncompleteDeliveryError(remaining int) *StandardError {
	return &StandardError{
		Code:      ErrCodeIncompleteDelivery,
		Message:   "Not all questions have been answered",
		Details:   fmt.Sprintf("remaining: %d", remaining),
		Retryable: false,
		Metadata:  map[string]interface{}{"remaining": remaining},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable state machine guard error.
func NewInvalidTransitionError(from, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Action not allowed in current session state",
		Details:   fmt.Sprintf("state: %s, action: %s", from, action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownQuestionError creates a non-retryable error for an answer to a
// question outside the session's snapshot.
func NewUnknownQuestionError(questionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownQuestion,
		Message:   "Answer references a question not in this session",
		Details:   fmt.Sprintf("questionId: %s", questionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckpointInvalidError creates a non-retryable checkpoint error. The
// store converts this into an "absent" result rather than surfacing it.
func NewCheckpointInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckpointInvalid,
		Message:   "Stored checkpoint is stale or malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError creates a retryable catalog error.
func NewCatalogUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Career profile catalog unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// CodeOf returns the error code of a StandardError, or empty for other errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// RemainingCount extracts the unanswered-question count from an
// INCOMPLETE_DELIVERY error. Returns -1 for any other error.
func RemainingCount(err error) int {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) || stdErr.Code != ErrCodeIncompleteDelivery {
		return -1
	}
	if n, ok := stdErr.Metadata["remaining"].(int); ok {
		return n
	}
	return -1
}
