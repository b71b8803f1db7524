package matching

import (
	"testing"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(LoadConfig(), logger.NewTestLogger(t))
}

func TestRank_WeightedBlend(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"investigative": 1.0}
	personality := models.ScoreVector{"openness": 0.5}
	profiles := []models.CareerProfile{
		{
			ID:                 "scientist",
			Title:              "Scientist",
			InterestWeights:    map[string]float64{"investigative": 1.0},
			PersonalityWeights: map[string]float64{"openness": 1.0},
		},
	}

	recs := engine.Rank(interest, personality, profiles, 5)

	require.Len(t, recs, 1)
	// 1.0*0.6 + 0.5*0.4 = 0.8 -> 80
	assert.Equal(t, 80, recs[0].Score)
}

func TestRank_MissingInstrumentWeightsScoreZero(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"realistic": 1.0}
	profiles := []models.CareerProfile{
		{ID: "interest-only", Title: "Interest Only", InterestWeights: map[string]float64{"realistic": 1.0}},
	}

	recs := engine.Rank(interest, models.ScoreVector{}, profiles, 1)

	require.Len(t, recs, 1)
	// Personality sub-score is 0 with no declared weights: 1.0*0.6 + 0*0.4.
	assert.Equal(t, 60, recs[0].Score)
}

func TestRank_ZeroVectorsScoreAllProfilesZero(t *testing.T) {
	engine := newTestEngine(t)

	profiles := []models.CareerProfile{
		{ID: "a", Title: "A", InterestWeights: map[string]float64{"realistic": 1.0}},
		{ID: "b", Title: "B", PersonalityWeights: map[string]float64{"openness": 0.8}},
	}

	recs := engine.Rank(models.ScoreVector{}, models.ScoreVector{}, profiles, 10)

	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Zero(t, r.Score)
		assert.Empty(t, r.Reasons)
	}
}

func TestRank_TiesKeepCatalogOrder(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"social": 0.5}
	profiles := []models.CareerProfile{
		{ID: "first", Title: "First", InterestWeights: map[string]float64{"social": 1.0}},
		{ID: "second", Title: "Second", InterestWeights: map[string]float64{"social": 1.0}},
		{ID: "third", Title: "Third", InterestWeights: map[string]float64{"social": 1.0}},
	}

	recs := engine.Rank(interest, models.ScoreVector{}, profiles, 10)

	require.Len(t, recs, 3)
	assert.Equal(t, "first", recs[0].ProfileID)
	assert.Equal(t, "second", recs[1].ProfileID)
	assert.Equal(t, "third", recs[2].ProfileID)
}

func TestRank_SortsDescendingAndTruncates(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"realistic": 1.0, "social": 0.4}
	profiles := []models.CareerProfile{
		{ID: "low", Title: "Low", InterestWeights: map[string]float64{"social": 1.0}},
		{ID: "high", Title: "High", InterestWeights: map[string]float64{"realistic": 1.0}},
		{ID: "mid", Title: "Mid", InterestWeights: map[string]float64{"realistic": 0.5, "social": 0.5}},
	}

	recs := engine.Rank(interest, models.ScoreVector{}, profiles, 2)

	require.Len(t, recs, 2)
	assert.Equal(t, "high", recs[0].ProfileID)
	assert.Equal(t, "mid", recs[1].ProfileID)
	assert.Greater(t, recs[0].Score, recs[1].Score)
}

func TestRank_AlignmentMonotonicity(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"investigative": 0.9, "artistic": 0.2}
	base := models.CareerProfile{
		ID:              "base",
		Title:           "Base",
		InterestWeights: map[string]float64{"investigative": 0.3, "artistic": 0.7},
	}
	aligned := models.CareerProfile{
		ID:              "aligned",
		Title:           "Aligned",
		InterestWeights: map[string]float64{"investigative": 0.7, "artistic": 0.3},
	}

	recs := engine.Rank(interest, models.ScoreVector{}, []models.CareerProfile{base, aligned}, 2)

	require.Len(t, recs, 2)
	// Shifting weight toward the user's stronger dimension never lowers the score.
	assert.Equal(t, "aligned", recs[0].ProfileID)
	assert.GreaterOrEqual(t, recs[0].Score, recs[1].Score)
}

func TestRank_ReasonsRequireBothThresholds(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"investigative": 0.9, "realistic": 0.9, "social": 0.3}
	profiles := []models.CareerProfile{
		{
			ID:    "p",
			Title: "Profile",
			InterestWeights: map[string]float64{
				"investigative": 0.9, // both above threshold -> reason
				"realistic":     0.4, // weight below threshold -> no reason
				"social":        0.9, // vector below threshold -> no reason
			},
		},
	}

	recs := engine.Rank(interest, models.ScoreVector{}, profiles, 1)

	require.Len(t, recs, 1)
	require.Len(t, recs[0].Reasons, 1)
	assert.Contains(t, recs[0].Reasons[0], "investigative")
}

func TestRank_ReasonsCapped(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"a": 1, "b": 1, "c": 1}
	personality := models.ScoreVector{"d": 1, "e": 1}
	profiles := []models.CareerProfile{
		{
			ID:                 "p",
			Title:              "Profile",
			InterestWeights:    map[string]float64{"a": 1, "b": 1, "c": 1},
			PersonalityWeights: map[string]float64{"d": 1, "e": 1},
		},
	}

	recs := engine.Rank(interest, personality, profiles, 1)

	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Reasons, 3)
}

func TestRank_ScoresWithinRange(t *testing.T) {
	engine := newTestEngine(t)

	interest := models.ScoreVector{"realistic": 1.0}
	personality := models.ScoreVector{"openness": 1.0}
	profiles := []models.CareerProfile{
		{
			ID:                 "max",
			Title:              "Max",
			InterestWeights:    map[string]float64{"realistic": 1.0},
			PersonalityWeights: map[string]float64{"openness": 1.0},
		},
	}

	recs := engine.Rank(interest, personality, profiles, 1)

	require.Len(t, recs, 1)
	assert.Equal(t, 100, recs[0].Score)
}
