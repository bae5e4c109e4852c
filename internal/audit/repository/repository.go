package repository

import (
	"context"

	"supportdesk/internal/audit/domain"
)

// Repository defines persistence for audit entries.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.Entry, error)
	ListRecent(ctx context.Context, limit, offset int32) ([]*domain.Entry, error)
	Create(ctx context.Context, e *domain.Entry) error
}
