package session

// State is the lifecycle phase of one assessment session.
type State string

const (
	StateIntro        State = "intro"
	StateDelivery     State = "delivery"
	StateSupplemental State = "supplemental"
	StateProcessing   State = "processing"
	StateTerminal     State = "terminal"
	StateCancelled    State = "cancelled"
)

// Progress is a point-in-time summary of how far delivery has come.
type Progress struct {
	State     State `json:"state"`
	PageIndex int   `json:"pageIndex"`
	Answered  int   `json:"answered"`
	Total     int   `json:"total"`
	Remaining int   `json:"remaining"`
}
