// Package service implements the credential token issuer: role-scoped,
// single-use, revocable tokens with an audit-preserving lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"supportdesk/internal/role"
	"supportdesk/internal/security"
	"supportdesk/internal/token/domain"
	tokenrepo "supportdesk/internal/token/repository"
)

// Sentinel errors; all are non-fatal, caller-facing "reject this attempt".
var (
	ErrTokenNotFound        = errors.New("token not found")
	ErrTokenAlreadyConsumed = errors.New("token already consumed")
	ErrTokenExpired         = errors.New("token expired")
)

// issueRetries bounds the retry-on-collision loop. With 256 bits of value
// entropy a single retry is already astronomically unlikely.
const issueRetries = 3

// Issuer issues, validates, and retires credential tokens.
type Issuer struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

// NewIssuer returns an Issuer over the given repository.
func NewIssuer(repo tokenrepo.Repository) *Issuer {
	return &Issuer{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh token for the role and persists it active. ttl of
// zero means the token never expires on its own. The returned Token carries
// the full value; this is the only moment it may be displayed unredacted.
func (i *Issuer) Issue(ctx context.Context, r role.Role, createdBy, description string, ttl time.Duration) (*domain.Token, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("issue token: unknown role %q", r)
	}
	now := i.now()
	var expiresAt *time.Time
	if ttl > 0 {
		e := now.Add(ttl)
		expiresAt = &e
	}
	for attempt := 0; attempt < issueRetries; attempt++ {
		t := &domain.Token{
			ID:          uuid.New().String(),
			Value:       security.NewTokenValue(),
			Role:        r.String(),
			Active:      true,
			CreatedBy:   createdBy,
			Description: description,
			CreatedAt:   now,
			ExpiresAt:   expiresAt,
		}
		err := i.repo.Create(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, tokenrepo.ErrDuplicateValue) {
			return nil, err
		}
	}
	return nil, errors.New("issue token: exhausted collision retries")
}

// Validate returns the token record only if it exists, is active, and has
// not passed its optional expiry. Consumed and disabled tokens are not found
// for authorization purposes.
func (i *Issuer) Validate(ctx context.Context, value string) (*domain.Token, error) {
	t, err := i.repo.GetByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.Active {
		return nil, ErrTokenNotFound
	}
	if t.Expired(i.now()) {
		return nil, ErrTokenExpired
	}
	return t, nil
}

// Consume atomically marks the token inactive: the single act it authorizes
// has happened. Under concurrent invocation exactly one caller observes
// success; the rest get ErrTokenAlreadyConsumed. The record is kept for audit.
func (i *Issuer) Consume(ctx context.Context, value string) (*domain.Token, error) {
	t, err := i.repo.GetByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTokenNotFound
	}
	if t.Expired(i.now()) {
		return nil, ErrTokenExpired
	}
	ok, err := i.repo.DeactivateByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenAlreadyConsumed
	}
	t.Active = false
	return t, nil
}

// Disable explicitly deactivates the token by id. Idempotent: disabling an
// already-inactive token succeeds.
func (i *Issuer) Disable(ctx context.Context, id string) error {
	t, err := i.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTokenNotFound
	}
	_, err = i.repo.Deactivate(ctx, id)
	return err
}

// Regenerate disables the old token and issues a new one carrying the same
// role and description. actor is recorded as the new token's creator.
func (i *Issuer) Regenerate(ctx context.Context, id, actor string) (*domain.Token, error) {
	old, err := i.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrTokenNotFound
	}
	if _, err := i.repo.Deactivate(ctx, id); err != nil {
		return nil, err
	}
	r, err := role.Parse(old.Role)
	if err != nil {
		return nil, err
	}
	var ttl time.Duration
	if old.ExpiresAt != nil {
		// Preserve the original lifetime, restarted from now.
		ttl = old.ExpiresAt.Sub(old.CreatedAt)
	}
	return i.Issue(ctx, r, actor, old.Description, ttl)
}

// List returns every token, newest first. Callers must render values through
// Token.Redacted; the full value is never shown after creation.
func (i *Issuer) List(ctx context.Context) ([]*domain.Token, error) {
	return i.repo.List(ctx)
}
