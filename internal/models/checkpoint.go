package models

import "time"

// Checkpoint is a persisted snapshot of in-progress session state enabling
// resume. The question snapshot is stored so resume does not depend on a
// fresh, possibly different, fetch.
type Checkpoint struct {
	Identity  string     `json:"identity"`
	PageIndex int        `json:"pageIndex"`
	Responses []Response `json:"responses"`
	Questions []Question `json:"questions"`
	SavedAt   time.Time  `json:"savedAt"`
}

// Age returns how long ago the checkpoint was saved.
func (c *Checkpoint) Age(now time.Time) time.Duration {
	return now.Sub(c.SavedAt)
}

// IsFresh reports whether the checkpoint is within the freshness window.
func (c *Checkpoint) IsFresh(now time.Time, window time.Duration) bool {
	age := c.Age(now)
	return age >= 0 && age < window
}
