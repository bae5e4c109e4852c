// Package repository defines persistence for credential tokens.
package repository

import (
	"context"
	"errors"

	"supportdesk/internal/token/domain"
)

// ErrDuplicateValue is returned by Create when the token value collides with
// an existing one. The issuer retries with fresh entropy.
var ErrDuplicateValue = errors.New("token value already exists")

// Repository defines persistence for credential tokens. Records are never
// physically deleted; deactivation is the terminal state. Get methods return
// (nil, nil) for missing tokens.
type Repository interface {
	Create(ctx context.Context, t *domain.Token) error
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	GetByValue(ctx context.Context, value string) (*domain.Token, error)
	// Deactivate atomically sets active=false for the token id and reports
	// whether this call performed the flip (false when already inactive or
	// missing).
	Deactivate(ctx context.Context, id string) (bool, error)
	// DeactivateByValue is the consume path: atomically sets active=false
	// for the token with the given value. Only the first caller observes true.
	DeactivateByValue(ctx context.Context, value string) (bool, error)
	// List returns every token, newest first.
	List(ctx context.Context) ([]*domain.Token, error)
}
