// Package scoring reduces raw per-question responses into normalized
// per-dimension trait vectors.
package scoring

import (
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// AnswerMapper resolves a multiple-choice option to its numeric score. The
// mapping table is external reference data, not owned by this engine.
type AnswerMapper interface {
	Value(option string) (int, bool)
}

type Engine struct {
	config    *Config
	answerMap AnswerMapper
	logger    logger.Logger
}

func NewEngine(config *Config, answerMap AnswerMapper, log logger.Logger) *Engine {
	return &Engine{
		config:    config,
		answerMap: answerMap,
		logger:    log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
}

type accumulator struct {
	sum   int
	count int
}

// Score produces one normalized vector per instrument from the full response
// set. Per dimension: mean response value divided by the scale maximum,
// clamped to [0,1]. Dimensions present in the question sequence but without
// any matching response normalize to 0, and an uneven number of questions
// per dimension does not skew the result.
func (e *Engine) Score(questions []models.Question, responses models.ResponseSet) (interest, personality models.ScoreVector) {
	interest = models.ScoreVector{}
	personality = models.ScoreVector{}

	acc := map[models.Instrument]map[string]*accumulator{
		models.InstrumentInterest:    {},
		models.InstrumentPersonality: {},
	}

	for _, q := range questions {
		byDim, ok := acc[q.Instrument]
		if !ok {
			continue
		}
		if _, seen := byDim[q.Dimension]; !seen {
			byDim[q.Dimension] = &accumulator{}
		}

		resp, answered := responses[q.ID]
		if !answered {
			continue
		}

		value, ok := e.numericValue(q, resp)
		if !ok {
			continue
		}
		byDim[q.Dimension].sum += value
		byDim[q.Dimension].count++
	}

	fill(interest, acc[models.InstrumentInterest], e.config.MaxScaleValue)
	fill(personality, acc[models.InstrumentPersonality], e.config.MaxScaleValue)
	return interest, personality
}

func (e *Engine) numericValue(q models.Question, resp models.Response) (int, bool) {
	if q.Kind == models.AnswerKindChoice {
		value, ok := e.answerMap.Value(resp.Choice)
		if !ok {
			e.logger.Warn("choice answer missing from mapping table", map[string]interface{}{
				"questionId": q.ID,
				"choice":     resp.Choice,
			})
			return 0, false
		}
		return value, true
	}
	return resp.Value, true
}

func fill(vector models.ScoreVector, byDim map[string]*accumulator, maxScale int) {
	for dim, a := range byDim {
		if a.count == 0 {
			vector[dim] = 0
			continue
		}
		normalized := (float64(a.sum) / float64(a.count)) / float64(maxScale)
		vector[dim] = clamp01(normalized)
	}
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
