package repository

import (
	"context"
	"sort"
	"sync"

	"supportdesk/internal/token/domain"
)

// MemoryRepository is an in-memory token store. The mutex makes Deactivate
// and DeactivateByValue first-caller-wins under concurrency.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*domain.Token
	byValue map[string]string
}

// NewMemoryRepository returns an empty in-memory token repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Token),
		byValue: make(map[string]string),
	}
}

// Create stores the token. Returns ErrDuplicateValue on value collision.
func (r *MemoryRepository) Create(ctx context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byValue[t.Value]; ok {
		return ErrDuplicateValue
	}
	cp := *t
	r.byID[t.ID] = &cp
	r.byValue[t.Value] = t.ID
	return nil
}

// GetByID returns the token for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// GetByValue returns the token for value, or nil if not found.
func (r *MemoryRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byValue[value]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Deactivate flips the token inactive; reports whether this call did the flip.
func (r *MemoryRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || !t.Active {
		return false, nil
	}
	t.Active = false
	return true, nil
}

// DeactivateByValue flips the token inactive by value; first caller wins.
func (r *MemoryRepository) DeactivateByValue(ctx context.Context, value string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byValue[value]
	if !ok {
		return false, nil
	}
	t := r.byID[id]
	if !t.Active {
		return false, nil
	}
	t.Active = false
	return true, nil
}

// List returns every token, newest first.
func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Token, 0, len(r.byID))
	for _, t := range r.byID {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
