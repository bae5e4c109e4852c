package domain

import "time"

// Session is a time-bounded binding from an opaque id to a principal.
// Immutable once issued; there is no sliding expiry. A session is destroyed
// by explicit invalidation, principal-wide invalidation, or expiry.
type Session struct {
	ID          string
	PrincipalID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session's lifetime has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
