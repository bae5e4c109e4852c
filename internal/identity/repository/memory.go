package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"supportdesk/internal/identity/domain"
)

// ErrEmailTaken is returned by Create when another principal already owns the email.
var ErrEmailTaken = errors.New("email already registered")

// MemoryRepository is an in-memory principal store for single-node
// deployments and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Principal
	byEmail map[string]string
}

// NewMemoryRepository returns an empty in-memory principal repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Principal),
		byEmail: make(map[string]string),
	}
}

// GetByID returns the principal for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// GetByEmail returns the principal for email, or nil if not found.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Create stores the principal. Returns ErrEmailTaken if the email is in use.
func (r *MemoryRepository) Create(ctx context.Context, p *domain.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[p.Email]; ok {
		return ErrEmailTaken
	}
	cp := *p
	r.byID[p.ID] = &cp
	r.byEmail[p.Email] = p.ID
	return nil
}

// SetActive flips the active flag. Missing principals are a no-op.
func (r *MemoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		p.Active = active
		p.UpdatedAt = time.Now().UTC()
	}
	return nil
}
