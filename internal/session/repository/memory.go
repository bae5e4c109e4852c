package repository

import (
	"context"
	"sync"
	"time"

	"supportdesk/internal/session/domain"
)

// MemoryRepository stores sessions in a sync.Map so that Get — the hot path
// behind every authenticated request — never contends with inserts and
// deletes for unrelated sessions. Bulk operations scan the table; they run
// on revocation or the periodic sweep, never per request.
type MemoryRepository struct {
	sessions sync.Map // id -> *domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert stores the session.
func (r *MemoryRepository) Insert(ctx context.Context, s *domain.Session) error {
	cp := *s
	r.sessions.Store(s.ID, &cp)
	return nil
}

// Get returns the session for id, or nil if not found.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	v, ok := r.sessions.Load(id)
	if !ok {
		return nil, nil
	}
	cp := *(v.(*domain.Session))
	return &cp, nil
}

// Delete removes the session. Missing ids are a no-op.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

// DeleteByPrincipal removes every session bound to the principal.
func (r *MemoryRepository) DeleteByPrincipal(ctx context.Context, principalID string) (int, error) {
	removed := 0
	r.sessions.Range(func(key, value any) bool {
		if value.(*domain.Session).PrincipalID == principalID {
			if _, loaded := r.sessions.LoadAndDelete(key); loaded {
				removed++
			}
		}
		return true
	})
	return removed, nil
}

// DeleteExpired removes every session whose expiry has passed at now.
func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	r.sessions.Range(func(key, value any) bool {
		if value.(*domain.Session).Expired(now) {
			if _, loaded := r.sessions.LoadAndDelete(key); loaded {
				removed++
			}
		}
		return true
	})
	return removed, nil
}
