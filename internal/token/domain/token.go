package domain

import "time"

// RedactPrefixLen is how many leading characters of a token value remain
// visible after redaction. The full value is shown exactly once, at creation.
const RedactPrefixLen = 8

// Token is a role-scoped credential: an unguessable value that authorizes a
// single act (e.g. completing onboarding). Tokens are deactivated on
// consumption or explicit disablement and kept for audit, never deleted.
type Token struct {
	ID          string
	Value       string
	Role        string
	Active      bool
	CreatedBy   string
	Description string
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil means no expiry
}

// Expired reports whether the token's optional expiry has passed at now.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Redacted returns the fixed-length display form of the value: an 8-char
// prefix plus ellipsis. Every operator-facing surface must use this.
func (t *Token) Redacted() string {
	if len(t.Value) <= RedactPrefixLen {
		return t.Value
	}
	return t.Value[:RedactPrefixLen] + "…"
}
