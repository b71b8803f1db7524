package models

// Instrument identifies one of the two psychometric questionnaires.
type Instrument string

const (
	InstrumentInterest    Instrument = "interest"
	InstrumentPersonality Instrument = "personality"
)

// AnswerKind distinguishes discrete-scale questions from multiple-choice ones.
type AnswerKind string

const (
	AnswerKindScale  AnswerKind = "scale"
	AnswerKindChoice AnswerKind = "choice"
)

// Question is a single inventory item. Immutable once fetched; DisplayOrder
// is assigned by the interleaver as the 1-based position in the combined
// display sequence.
type Question struct {
	ID           string     `json:"id"`
	Instrument   Instrument `json:"instrument"`
	Text         string     `json:"text"`
	Kind         AnswerKind `json:"kind"`
	Options      []string   `json:"options,omitempty"`
	Dimension    string     `json:"dimension"`
	DisplayOrder int        `json:"displayOrder"`
}
