// Package matching ranks the static career catalog against normalized trait
// vectors and produces human-readable match reasons. Its output doubles as
// the local fallback when the server-side result is unavailable, so a
// session can always terminate with a result.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type Engine struct {
	config *Config
	logger logger.Logger
}

func NewEngine(config *Config, log logger.Logger) *Engine {
	return &Engine{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "matching"}),
	}
}

// Rank scores every profile against the two vectors and returns the top-N
// recommendations in descending score order. The sort is stable: equal
// scores keep catalog order, so the first-declared profile wins ties.
// topN <= 0 falls back to the configured default.
func (e *Engine) Rank(interest, personality models.ScoreVector, profiles []models.CareerProfile, topN int) []models.Recommendation {
	if topN <= 0 {
		topN = e.config.TopN
	}

	ranked := make([]models.Recommendation, 0, len(profiles))
	for _, p := range profiles {
		interestSub := weightedMean(interest, p.InterestWeights)
		personalitySub := weightedMean(personality, p.PersonalityWeights)

		blended := interestSub*e.config.InterestWeight + personalitySub*e.config.PersonalityWeight
		score := int(math.Round(clamp01(blended) * 100))

		ranked = append(ranked, models.Recommendation{
			ProfileID: p.ID,
			Title:     p.Title,
			Score:     score,
			Reasons:   e.reasons(interest, personality, p),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	e.logger.Debug("catalog ranked", map[string]interface{}{
		"profiles": len(profiles),
		"returned": len(ranked),
	})
	return ranked
}

// weightedMean computes the instrument sub-score Σ(vector[dim]·weight[dim]) / Σweight.
// A profile that declares no weights for the instrument scores 0 on it.
func weightedMean(vector models.ScoreVector, weights map[string]float64) float64 {
	var weightedSum, weightTotal float64
	for dim, w := range weights {
		weightedSum += vector[dim] * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

// reasons emits one sentence for every dimension where both the user's
// normalized value and the profile's weight clear their thresholds, capped
// at MaxReasons. Dimensions are visited in sorted order per instrument,
// interest first, so the output is deterministic.
func (e *Engine) reasons(interest, personality models.ScoreVector, p models.CareerProfile) []string {
	var out []string

	for _, dim := range passingDimensions(interest, p.InterestWeights, e.config.ScoreThreshold, e.config.WeightThreshold) {
		if len(out) >= e.config.MaxReasons {
			return out
		}
		out = append(out, fmt.Sprintf("Your strong %s interests match the day-to-day work of a %s.", humanize(dim), p.Title))
	}

	for _, dim := range passingDimensions(personality, p.PersonalityWeights, e.config.ScoreThreshold, e.config.WeightThreshold) {
		if len(out) >= e.config.MaxReasons {
			return out
		}
		out = append(out, fmt.Sprintf("Your high %s fits the temperament this career rewards.", humanize(dim)))
	}

	return out
}

func passingDimensions(vector models.ScoreVector, weights map[string]float64, scoreThreshold, weightThreshold float64) []string {
	var dims []string
	for dim, w := range weights {
		if w > weightThreshold && vector[dim] > scoreThreshold {
			dims = append(dims, dim)
		}
	}
	sort.Strings(dims)
	return dims
}

func humanize(dimension string) string {
	return strings.ReplaceAll(dimension, "_", " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
