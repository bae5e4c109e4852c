// Package repository defines persistence for sessions.
package repository

import (
	"context"
	"time"

	"supportdesk/internal/session/domain"
)

// Repository defines raw session storage. Implementations must be safe for
// concurrent use; Get on the validation hot path must not serialize behind
// unrelated inserts and deletes. Get returns (nil, nil) for missing ids;
// Delete of a missing id is a no-op.
type Repository interface {
	Insert(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByPrincipal removes every session bound to the principal and
	// returns how many were removed.
	DeleteByPrincipal(ctx context.Context, principalID string) (int, error)
	// DeleteExpired removes every session with expires_at <= now and returns
	// how many were removed. Backends that expire natively may return 0.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
