package domain

import (
	"errors"
	"time"

	"supportdesk/internal/role"
)

// Principal is an authenticated identity: an operator of the support desk.
// Sessions and credential tokens ultimately authorize a Principal.
type Principal struct {
	ID           string
	Email        string
	Name         string
	Role         role.Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the principal for persistence. Returns an error
// describing the first validation failure.
func (p *Principal) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Email == "" {
		return errors.New("email is required")
	}
	if !p.Role.Valid() {
		return errors.New("role is required")
	}
	return nil
}
