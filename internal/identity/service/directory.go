// Package service exposes the principal directory consumed by the session
// core: principal lookup for eligibility checks and password verification
// for login.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"supportdesk/internal/identity/domain"
	identityrepo "supportdesk/internal/identity/repository"
	"supportdesk/internal/role"
	"supportdesk/internal/security"
)

// Sentinel errors for the directory; handlers map them to HTTP codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRegistered    = errors.New("email already registered")
)

// Directory resolves principals and verifies their credentials. The session
// and broadcast core only consumes GetPrincipal and VerifyPassword; the rest
// exists for onboarding and administration.
type Directory struct {
	repo   identityrepo.Repository
	hasher *security.Hasher
}

// NewDirectory returns a Directory over the given repository and hasher.
func NewDirectory(repo identityrepo.Repository, hasher *security.Hasher) *Directory {
	return &Directory{repo: repo, hasher: hasher}
}

// GetPrincipal returns the principal for id, or nil if it does not exist.
func (d *Directory) GetPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	return d.repo.GetByID(ctx, id)
}

// VerifyPassword checks email/password against the stored hash and returns
// the matching active principal. Inactive principals and unknown emails fail
// identically with ErrInvalidCredentials.
func (d *Directory) VerifyPassword(ctx context.Context, email, password string) (*domain.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	p, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, ErrInvalidCredentials
	}
	if err := d.hasher.Compare(p.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// Register creates an active principal with the given role and password.
// Used by the onboarding flow after a credential token has been consumed.
func (d *Directory) Register(ctx context.Context, email, name, password string, r role.Role) (*domain.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	existing, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailRegistered
	}
	hash, err := d.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Principal{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         r,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.repo.Create(ctx, p); err != nil {
		if errors.Is(err, identityrepo.ErrEmailTaken) {
			return nil, ErrEmailRegistered
		}
		return nil, err
	}
	return p, nil
}

// Deactivate marks the principal inactive. Existing sessions must be revoked
// separately; the session service also rejects sessions of inactive
// principals on validation.
func (d *Directory) Deactivate(ctx context.Context, id string) error {
	return d.repo.SetActive(ctx, id, false)
}
