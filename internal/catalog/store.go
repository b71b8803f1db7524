// Package catalog serves career profiles for matching. The primary source is
// Postgres; when the database cannot serve the query the embedded registry
// catalog steps in, so ranking never runs against an empty profile list.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

const profilesQuery = `
	SELECT id, title, description, interest_weights, personality_weights
	FROM career_profiles
	ORDER BY display_rank, id`

type Store struct {
	db       *sql.DB
	fallback []models.CareerProfile
	logger   logger.Logger
}

// NewStore builds a catalog over db. A nil db is allowed and serves the
// fallback catalog exclusively.
func NewStore(db *sql.DB, fallback []models.CareerProfile, log logger.Logger) *Store {
	return &Store{
		db:       db,
		fallback: fallback,
		logger:   log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

// Profiles returns the catalog in display order. Database failures degrade to
// the embedded fallback instead of propagating, because matching must always
// have profiles to rank. An error is returned only when the fallback is empty
// too and there is genuinely nothing to serve.
func (s *Store) Profiles(ctx context.Context) ([]models.CareerProfile, error) {
	if s.db == nil {
		return s.serveFallback(errors.New("no database configured"))
	}

	profiles, err := s.query(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("profile query failed, serving embedded catalog", nil)
		return s.serveFallback(err)
	}
	if len(profiles) == 0 {
		s.logger.Warn("career_profiles table is empty, serving embedded catalog", nil)
		return s.serveFallback(errors.New("career_profiles table is empty"))
	}
	return profiles, nil
}

func (s *Store) serveFallback(cause error) ([]models.CareerProfile, error) {
	if len(s.fallback) == 0 {
		return nil, apperrors.NewCatalogUnavailableError(cause)
	}
	return s.fallback, nil
}

func (s *Store) query(ctx context.Context) ([]models.CareerProfile, error) {
	rows, err := s.db.QueryContext(ctx, profilesQuery)
	if err != nil {
		return nil, fmt.Errorf("query career profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.CareerProfile
	for rows.Next() {
		var p models.CareerProfile
		var interestRaw, personalityRaw []byte
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &interestRaw, &personalityRaw); err != nil {
			return nil, fmt.Errorf("scan career profile: %w", err)
		}
		if err := json.Unmarshal(interestRaw, &p.InterestWeights); err != nil {
			return nil, fmt.Errorf("profile %s interest weights: %w", p.ID, err)
		}
		if err := json.Unmarshal(personalityRaw, &p.PersonalityWeights); err != nil {
			return nil, fmt.Errorf("profile %s personality weights: %w", p.ID, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate career profiles: %w", err)
	}
	return profiles, nil
}
