// Package session drives one assessment through its lifecycle: intro,
// paged question delivery, optional supplemental essay, processing and a
// terminal result. The machine owns all transition guards; collaborators do
// the actual fetching, persisting, scoring and matching.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/backend"
	apperrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/engine/interleave"
	"assessment-engine/internal/models"
)

// Backend is the slice of the assessment API the machine drives.
type Backend interface {
	FetchQuestions(ctx context.Context, instrument models.Instrument, opts backend.FetchOptions) ([]models.Question, error)
	SubmitResponses(ctx context.Context, instruments []models.Instrument, responses []models.Response) (string, error)
	SubmitEssay(ctx context.Context, assessmentID, content, promptID, language string) error
	FetchResult(ctx context.Context, assessmentID string) (*models.ComputedResult, error)
}

// CheckpointStore persists in-progress answers per identity.
type CheckpointStore interface {
	Save(ctx context.Context, identity string, page int, responses []models.Response, snapshot []models.Question) error
	Load(ctx context.Context, identity string) (*models.Checkpoint, error)
	Clear(ctx context.Context, identity string) error
}

// Scorer reduces responses into normalized trait vectors.
type Scorer interface {
	Score(questions []models.Question, responses models.ResponseSet) (interest, personality models.ScoreVector)
}

// Matcher ranks the career catalog against trait vectors.
type Matcher interface {
	Rank(interest, personality models.ScoreVector, profiles []models.CareerProfile, topN int) []models.Recommendation
}

// Catalog supplies the career profiles used for local fallback matching.
type Catalog interface {
	Profiles(ctx context.Context) ([]models.CareerProfile, error)
}

// Recorder forwards session completion events to the telemetry pipeline.
// A nil Recorder disables recording.
type Recorder interface {
	RecordSessionFinished(ctx context.Context, outcome string)
	RecordSessionDuration(ctx context.Context, duration time.Duration, outcome string)
}

// Machine is one user's session. Safe for concurrent use; the HTTP layer
// may interleave answer and progress calls.
type Machine struct {
	mu sync.Mutex

	id       string
	identity string
	state    State

	questions    []models.Question
	questionByID map[string]models.Question
	responses    models.ResponseSet
	pageIndex    int
	assessmentID string
	result       *models.ComputedResult

	backend     Backend
	checkpoints CheckpointStore
	scorer      Scorer
	matcher     Matcher
	catalog     Catalog
	recorder    Recorder

	config    *Config
	logger    logger.Logger
	now       func() time.Time
	startedAt time.Time
	finalized bool
}

func NewMachine(identity string, backend Backend, checkpoints CheckpointStore, scorer Scorer, matcher Matcher, catalog Catalog, recorder Recorder, config *Config, log logger.Logger) *Machine {
	id := uuid.New().String()
	return &Machine{
		id:           id,
		identity:     identity,
		state:        StateIntro,
		questionByID: map[string]models.Question{},
		responses:    models.ResponseSet{},
		backend:      backend,
		checkpoints:  checkpoints,
		scorer:       scorer,
		matcher:      matcher,
		catalog:      catalog,
		recorder:     recorder,
		config:       config,
		logger: log.WithFields(map[string]interface{}{
			"component": "session",
			"sessionId": id,
		}),
		now: time.Now,
	}
}

func (m *Machine) ID() string { return m.id }

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PendingCheckpoint reports whether resumable progress exists for this
// identity. Only meaningful before Start; the caller uses it to offer the
// resume-or-discard choice.
func (m *Machine) PendingCheckpoint(ctx context.Context) (*models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIntro {
		return nil, apperrors.NewInvalidTransitionError(string(m.state), "pending-checkpoint")
	}
	return m.checkpoints.Load(ctx, m.identity)
}

// Start moves intro to delivery. With resume true a fresh checkpoint restores
// the question snapshot, page index and responses; otherwise any checkpoint
// is discarded and both question sets are fetched and interleaved anew.
func (m *Machine) Start(ctx context.Context, resume bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIntro {
		return apperrors.NewInvalidTransitionError(string(m.state), "start")
	}

	mode := "fresh"
	if resume {
		cp, err := m.checkpoints.Load(ctx, m.identity)
		if err != nil {
			return err
		}
		if cp != nil {
			m.restore(cp)
			mode = "resumed"
		}
	} else {
		if err := m.checkpoints.Clear(ctx, m.identity); err != nil {
			m.logger.WithError(err).Warn("discarding previous checkpoint failed", nil)
		}
	}

	if len(m.questions) == 0 {
		if err := m.fetchQuestions(ctx); err != nil {
			return err
		}
		mode = "fresh"
	}

	m.state = StateDelivery
	m.startedAt = m.now()
	metrics.SessionsStarted.WithLabelValues(mode).Inc()
	m.logger.Info("session started", map[string]interface{}{
		"mode":      mode,
		"questions": len(m.questions),
		"answered":  len(m.responses),
	})
	return nil
}

func (m *Machine) restore(cp *models.Checkpoint) {
	m.questions = cp.Questions
	m.responses = models.FromResponseList(cp.Responses)
	m.pageIndex = cp.PageIndex
	m.indexQuestions()
}

func (m *Machine) fetchQuestions(ctx context.Context) error {
	interest, err := m.backend.FetchQuestions(ctx, models.InstrumentInterest, backend.FetchOptions{})
	if err != nil {
		return err
	}
	personality, err := m.backend.FetchQuestions(ctx, models.InstrumentPersonality, backend.FetchOptions{})
	if err != nil {
		return err
	}

	m.questions = interleave.Merge(interest, personality)
	m.responses = models.ResponseSet{}
	m.pageIndex = 0
	m.indexQuestions()
	return nil
}

func (m *Machine) indexQuestions() {
	m.questionByID = make(map[string]models.Question, len(m.questions))
	for _, q := range m.questions {
		m.questionByID[q.ID] = q
	}
}

// Answer records one response and checkpoints the full session state. A later
// answer to the same question overwrites the earlier one. Question IDs
// outside the session snapshot are rejected without side effects.
func (m *Machine) Answer(ctx context.Context, response models.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDelivery {
		return apperrors.NewInvalidTransitionError(string(m.state), "answer")
	}

	q, known := m.questionByID[response.QuestionID]
	if !known {
		return apperrors.NewUnknownQuestionError(response.QuestionID)
	}

	m.responses[response.QuestionID] = response
	m.pageIndex = m.currentPage()
	metrics.AnswersRecorded.WithLabelValues(string(q.Instrument)).Inc()

	if err := m.saveCheckpoint(ctx); err != nil {
		return err
	}
	return nil
}

func (m *Machine) currentPage() int {
	if m.config.PageSize <= 0 || len(m.questions) == 0 {
		return 0
	}
	page := len(m.responses) / m.config.PageSize
	lastPage := (len(m.questions) - 1) / m.config.PageSize
	if page > lastPage {
		page = lastPage
	}
	return page
}

func (m *Machine) saveCheckpoint(ctx context.Context) error {
	return m.checkpoints.Save(ctx, m.identity, m.pageIndex, m.responses.List(m.questions), m.questions)
}

// Questions returns the interleaved snapshot for the current session.
func (m *Machine) Questions() []models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

func (m *Machine) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Progress{
		State:     m.state,
		PageIndex: m.pageIndex,
		Answered:  len(m.responses),
		Total:     len(m.questions),
		Remaining: m.remaining(),
	}
}

func (m *Machine) remaining() int {
	count := 0
	for _, q := range m.questions {
		if _, ok := m.responses[q.ID]; !ok {
			count++
		}
	}
	return count
}

// CompleteDelivery moves delivery to supplemental. The guard is purely local:
// every question in the snapshot must have a response.
func (m *Machine) CompleteDelivery(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDelivery {
		return apperrors.NewInvalidTransitionError(string(m.state), "complete-delivery")
	}
	if remaining := m.remaining(); remaining > 0 {
		return apperrors.NewIncompleteDeliveryError(remaining)
	}

	m.state = StateSupplemental
	return nil
}

// SubmitSupplemental submits the response set, then the essay, and moves to
// processing. A submission failure keeps the machine in supplemental with a
// retryable error. Once responses are durably submitted the checkpoint is
// cleared and an essay failure no longer blocks the transition.
func (m *Machine) SubmitSupplemental(ctx context.Context, essay, promptID, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSupplemental {
		return apperrors.NewInvalidTransitionError(string(m.state), "submit-supplemental")
	}

	if err := m.submitResponses(ctx); err != nil {
		return err
	}

	if essay != "" {
		if err := m.backend.SubmitEssay(ctx, m.assessmentID, essay, promptID, language); err != nil {
			m.logger.WithError(err).Warn("essay submission failed, continuing without it", map[string]interface{}{
				"assessmentId": m.assessmentID,
			})
		}
	}

	m.state = StateProcessing
	return nil
}

// SkipSupplemental submits the response set without an essay and moves to
// processing.
func (m *Machine) SkipSupplemental(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSupplemental {
		return apperrors.NewInvalidTransitionError(string(m.state), "skip-supplemental")
	}
	if err := m.submitResponses(ctx); err != nil {
		return err
	}

	m.state = StateProcessing
	return nil
}

func (m *Machine) submitResponses(ctx context.Context) error {
	if m.assessmentID != "" {
		return nil
	}

	instruments := []models.Instrument{models.InstrumentInterest, models.InstrumentPersonality}
	id, err := m.backend.SubmitResponses(ctx, instruments, m.responses.List(m.questions))
	if err != nil {
		return err
	}
	m.assessmentID = id

	if err := m.checkpoints.Clear(ctx, m.identity); err != nil {
		m.logger.WithError(err).Warn("clearing checkpoint after submission failed", nil)
	}
	m.logger.Info("responses submitted", map[string]interface{}{
		"assessmentId": id,
		"responses":    len(m.responses),
	})
	return nil
}

// CompleteProcessing waits out the processing delay, fetches the computed
// result and moves to terminal. A fetch failure still reaches terminal: the
// result is computed locally from scoring plus catalog matching instead.
func (m *Machine) CompleteProcessing(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateProcessing {
		return apperrors.NewInvalidTransitionError(string(m.state), "complete-processing")
	}

	if m.config.ProcessingDelay > 0 {
		timer := time.NewTimer(m.config.ProcessingDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	outcome := "server"
	result, err := m.backend.FetchResult(ctx, m.assessmentID)
	if err != nil {
		m.logger.WithError(err).Warn("result fetch failed, computing locally", map[string]interface{}{
			"assessmentId": m.assessmentID,
		})
		result = m.localResult(ctx)
		outcome = "fallback"
	}

	m.result = result
	m.state = StateTerminal
	metrics.SessionsCompleted.WithLabelValues(outcome).Inc()
	if !m.startedAt.IsZero() {
		metrics.SessionDuration.Observe(m.now().Sub(m.startedAt).Seconds())
	}
	if m.recorder != nil {
		m.recorder.RecordSessionFinished(ctx, outcome)
		if !m.startedAt.IsZero() {
			m.recorder.RecordSessionDuration(ctx, m.now().Sub(m.startedAt), outcome)
		}
	}
	m.logger.Info("session finished", map[string]interface{}{
		"outcome":         outcome,
		"recommendations": len(result.Recommendations),
	})
	return nil
}

func (m *Machine) localResult(ctx context.Context) *models.ComputedResult {
	interest, personality := m.scorer.Score(m.questions, m.responses)

	profiles, err := m.catalog.Profiles(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("catalog unavailable for fallback ranking", nil)
		profiles = nil
	}

	return &models.ComputedResult{
		AssessmentID:      m.assessmentID,
		InterestScores:    interest,
		PersonalityScores: personality,
		Recommendations:   m.matcher.Rank(interest, personality, profiles, 0),
	}
}

// Result returns the computed result once the session is terminal.
func (m *Machine) Result() (*models.ComputedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateTerminal {
		return nil, apperrors.NewInvalidTransitionError(string(m.state), "result")
	}
	return m.result, nil
}

// Cancel abandons the session from intro or delivery. The checkpoint is kept
// so the user can resume later.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIntro && m.state != StateDelivery {
		return apperrors.NewInvalidTransitionError(string(m.state), "cancel")
	}

	m.state = StateCancelled
	metrics.SessionsCancelled.Inc()
	m.logger.Info("session cancelled", map[string]interface{}{
		"answered": len(m.responses),
	})
	return nil
}

// Finalize runs on every exit path, including OS signals. In delivery it
// makes one best-effort checkpoint save; everywhere else it is a no-op.
// Idempotent.
func (m *Machine) Finalize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return
	}
	m.finalized = true

	if m.state != StateDelivery {
		return
	}
	if err := m.saveCheckpoint(ctx); err != nil {
		m.logger.WithError(err).Warn("final checkpoint save failed", nil)
	}
}
