package repository

import (
	"context"
	"sort"
	"sync"

	"supportdesk/internal/audit/domain"
)

// MemoryRepository is an in-memory audit store for tests and single-node
// runs without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*domain.Entry
	for _, e := range r.entries {
		if e.ActorID == actorID {
			matched = append(matched, e)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *MemoryRepository) ListRecent(ctx context.Context, limit, offset int32) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.entries, limit, offset), nil
}

func (r *MemoryRepository) Create(ctx context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func page(entries []*domain.Entry, limit, offset int32) []*domain.Entry {
	sorted := make([]*domain.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if int(offset) >= len(sorted) {
		return nil
	}
	sorted = sorted[offset:]
	if limit > 0 && int(limit) < len(sorted) {
		sorted = sorted[:limit]
	}
	out := make([]*domain.Entry, len(sorted))
	for i, e := range sorted {
		cp := *e
		out[i] = &cp
	}
	return out
}
