package models

// Response is the raw answer to one question. Scale questions carry Value,
// choice questions carry Choice. Keyed by QuestionID; at most one response
// per question per session, later writes overwrite earlier ones.
type Response struct {
	QuestionID string `json:"questionId"`
	Value      int    `json:"value,omitempty"`
	Choice     string `json:"choice,omitempty"`
}

// ResponseSet is the in-memory view of all responses, keyed by question ID.
type ResponseSet map[string]Response

// List returns responses ordered by the given question sequence, skipping
// questions without an answer. Serialization uses this form so the stored
// order follows the display sequence.
func (rs ResponseSet) List(questions []Question) []Response {
	out := make([]Response, 0, len(rs))
	for _, q := range questions {
		if r, ok := rs[q.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FromResponseList rebuilds the keyed set from a stored list.
func FromResponseList(list []Response) ResponseSet {
	rs := make(ResponseSet, len(list))
	for _, r := range list {
		rs[r.QuestionID] = r
	}
	return rs
}
