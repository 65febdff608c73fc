package monitor

import "time"

// Status is the last connectivity snapshot. BufferByKind breaks the pending
// offline writes down by document kind.
type Status struct {
	PostgreSQL   bool           `json:"postgresql"`
	Redis        bool           `json:"redis"`
	Buffer       bool           `json:"buffer"`
	BufferSize   int            `json:"buffer_size"`
	BufferByKind map[string]int `json:"buffer_by_kind,omitempty"`
	LastCheck    time.Time      `json:"last_check"`
}

// Stale reports whether the snapshot is older than maxAge or was never taken.
func (s Status) Stale(now time.Time, maxAge time.Duration) bool {
	return s.LastCheck.IsZero() || now.Sub(s.LastCheck) > maxAge
}
