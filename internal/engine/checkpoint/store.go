// Package checkpoint persists in-progress answer sets per user identity with
// time-based expiry, hiding the key namespacing and freshness policy behind
// one save/load/clear contract.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/common/validation"
	"assessment-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// AnonymousIdentity is the sentinel namespace for sessions without an
// authenticated identity, kept distinct so anonymous and identified progress
// never collide.
const AnonymousIdentity = "anonymous"

// checkpointSchema rejects structurally broken payloads at load time. A
// responses field that is not a list is the classic corruption here.
const checkpointSchema = `{
  "type": "object",
  "required": ["identity", "pageIndex", "responses", "questions", "savedAt"],
  "properties": {
    "identity": {"type": "string"},
    "pageIndex": {"type": "integer", "minimum": 0},
    "responses": {"type": "array"},
    "questions": {"type": "array"},
    "savedAt": {"type": "string"}
  }
}`

// Store reads and writes checkpoints in Redis. Within one identity only one
// session is assumed active; two simultaneous tabs can race on
// read-modify-write, which is an accepted, documented limitation.
type Store struct {
	redis  *redis.Client
	config *Config
	logger logger.Logger
	now    func() time.Time
}

func NewStore(rdb *redis.Client, config *Config, log logger.Logger) *Store {
	return &Store{
		redis:  rdb,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "checkpoint-store"}),
		now:    time.Now,
	}
}

func (s *Store) key(identity string) string {
	return fmt.Sprintf("%s_%s", s.config.Purpose, normalizeIdentity(identity))
}

func (s *Store) tsKey(identity string) string {
	return fmt.Sprintf("%s_ts_%s", s.config.Purpose, normalizeIdentity(identity))
}

func normalizeIdentity(identity string) string {
	if identity == "" {
		return AnonymousIdentity
	}
	return identity
}

// Save overwrites the checkpoint for identity with the current time as its
// timestamp. Each save fully replaces the stored entry, so saves for one
// identity can never interleave partially.
func (s *Store) Save(ctx context.Context, identity string, page int, responses []models.Response, snapshot []models.Question) error {
	cp := models.Checkpoint{
		Identity:  normalizeIdentity(identity),
		PageIndex: page,
		Responses: responses,
		Questions: snapshot,
		SavedAt:   s.now().UTC(),
	}

	data, err := json.Marshal(cp)
	if err != nil {
		metrics.CheckpointSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	// TTL doubles as a safety net: even if the timestamp entry is lost the
	// payload cannot outlive the freshness window.
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.key(identity), data, s.config.FreshnessWindow)
	pipe.Set(ctx, s.tsKey(identity), cp.SavedAt.Format(time.RFC3339Nano), s.config.FreshnessWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.CheckpointSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("write checkpoint: %w", err)
	}

	metrics.CheckpointSaves.WithLabelValues("ok").Inc()
	s.logger.Debug("checkpoint saved", map[string]interface{}{
		"identity":  cp.Identity,
		"page":      page,
		"responses": len(responses),
	})
	return nil
}

// Load returns the checkpoint for identity, or nil when none is present.
// Stale or structurally invalid entries are invalidated and reported as
// absent, never as an error the caller must handle.
func (s *Store) Load(ctx context.Context, identity string) (*models.Checkpoint, error) {
	tsRaw, err := s.redis.Get(ctx, s.tsKey(identity)).Result()
	if err == redis.Nil {
		metrics.CheckpointLoads.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint timestamp: %w", err)
	}

	savedAt, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		s.invalidate(ctx, identity, "unparseable timestamp")
		metrics.CheckpointLoads.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	stamp := models.Checkpoint{SavedAt: savedAt}
	if !stamp.IsFresh(s.now(), s.config.FreshnessWindow) {
		s.invalidate(ctx, identity, fmt.Sprintf("outside freshness window, age %s", stamp.Age(s.now())))
		metrics.CheckpointLoads.WithLabelValues("stale").Inc()
		return nil, nil
	}

	data, err := s.redis.Get(ctx, s.key(identity)).Bytes()
	if err == redis.Nil {
		metrics.CheckpointLoads.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint payload: %w", err)
	}

	if result := validation.ValidateDocument(data, checkpointSchema); !result.Valid {
		s.invalidate(ctx, identity, result.ErrorSummary())
		metrics.CheckpointLoads.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.invalidate(ctx, identity, err.Error())
		metrics.CheckpointLoads.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	metrics.CheckpointLoads.WithLabelValues("hit").Inc()
	return &cp, nil
}

// Clear removes any checkpoint for identity.
func (s *Store) Clear(ctx context.Context, identity string) error {
	if err := s.redis.Del(ctx, s.key(identity), s.tsKey(identity)).Err(); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}

func (s *Store) invalidate(ctx context.Context, identity, reason string) {
	s.logger.WithError(apperrors.NewCheckpointInvalidError(reason)).Warn("dropping unusable checkpoint", map[string]interface{}{
		"identity": normalizeIdentity(identity),
	})
	if err := s.redis.Del(ctx, s.key(identity), s.tsKey(identity)).Err(); err != nil {
		s.logger.WithError(err).Warn("checkpoint invalidation failed", nil)
	}
}
