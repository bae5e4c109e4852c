// Package repository defines persistence for principals.
package repository

import (
	"context"

	"supportdesk/internal/identity/domain"
)

// Repository defines persistence for principals. Get methods return
// (nil, nil) when the principal does not exist; errors are reserved for
// storage failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	Create(ctx context.Context, p *domain.Principal) error
	SetActive(ctx context.Context, id string, active bool) error
}
