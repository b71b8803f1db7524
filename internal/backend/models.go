package backend

import "assessment-engine/internal/models"

// FetchOptions parameterize a question fetch. Shuffle and Seed are forwarded
// verbatim; any randomization of question selection happens server-side.
type FetchOptions struct {
	Shuffle        bool           `json:"shuffle,omitempty"`
	Seed           int64          `json:"seed,omitempty"`
	DimensionQuota map[string]int `json:"dimensionQuota,omitempty"`
}

type questionsResponse struct {
	Questions []models.Question `json:"questions"`
}

type submitRequest struct {
	Instruments []models.Instrument `json:"instruments"`
	Responses   []models.Response   `json:"responses"`
}

type submitResponse struct {
	AssessmentID string `json:"assessmentId"`
}

type essayRequest struct {
	Content  string `json:"content"`
	PromptID string `json:"promptId,omitempty"`
	Language string `json:"language,omitempty"`
}
