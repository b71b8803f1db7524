package models

// ScoreVector maps a dimension tag to a normalized value in [0,1]. Ephemeral;
// recomputed from the full response set, never persisted on its own.
type ScoreVector map[string]float64

// CareerProfile is one entry of the static career catalog. The weight maps
// express how strongly each dimension predicts fit for this profile. Catalog
// order matters: it breaks ties during ranking.
type CareerProfile struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	InterestWeights    map[string]float64 `json:"interestWeights"`
	PersonalityWeights map[string]float64 `json:"personalityWeights"`
}

// Recommendation is a ranked match produced by the matching engine. Produced
// fresh per invocation; persistence of final results is external.
type Recommendation struct {
	ProfileID string   `json:"profileId"`
	Title     string   `json:"title"`
	Score     int      `json:"score"` // blended match score, 0-100
	Reasons   []string `json:"reasons,omitempty"`
}

// ComputedResult is the server-side scoring outcome fetched after submission.
// Recommendations may be empty when the server has not finished computing.
type ComputedResult struct {
	AssessmentID      string           `json:"assessmentId"`
	InterestScores    ScoreVector      `json:"interestScores"`
	PersonalityScores ScoreVector      `json:"personalityScores"`
	Recommendations   []Recommendation `json:"recommendations,omitempty"`
}
