package domain

import "time"

// Session is one signed-in browser, persisted under the dealease_token key.
// Revoking it invalidates every token that carries its id.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Remaining is the lifetime left at reference, zero once expired.
func (s *Session) Remaining(reference time.Time) time.Duration {
	if s.IsExpired(reference) {
		return 0
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return s.ExpiresAt.Sub(reference)
}

// Extend moves the expiry to reference+ttl.
func (s *Session) Extend(reference time.Time, ttl time.Duration) {
	if s == nil {
		return
	}
	s.ExpiresAt = reference.Add(ttl)
}
