// Package service implements the session store: issuance, validation with
// lazy expiry, explicit and principal-wide invalidation, and the periodic
// expiry sweep.
package service

import (
	"context"
	"errors"
	"time"

	identitydomain "supportdesk/internal/identity/domain"
	"supportdesk/internal/security"
	"supportdesk/internal/session/domain"
	sessionrepo "supportdesk/internal/session/repository"
)

// Sentinel errors; the boundary layer maps both to "must re-authenticate".
var (
	// ErrInvalidSession covers absent, malformed, and expired session ids.
	ErrInvalidSession = errors.New("invalid session")
	// ErrPrincipalIneligible marks a live session whose principal is no
	// longer active. Callers treat it exactly like ErrInvalidSession.
	ErrPrincipalIneligible = errors.New("principal ineligible")
)

// PrincipalLookup is the minimal directory surface the session service needs.
type PrincipalLookup interface {
	GetPrincipal(ctx context.Context, id string) (*identitydomain.Principal, error)
}

// Service issues and validates sessions over a Repository. All operations
// are safe under arbitrary interleaving; none hold a lock across storage
// calls beyond what the backend itself does.
type Service struct {
	repo       sessionrepo.Repository
	principals PrincipalLookup
	ttl        time.Duration
	now        func() time.Time
}

// NewService returns a session service with the given fixed TTL. principals
// may be nil, in which case eligibility is not checked (tests, tooling).
func NewService(repo sessionrepo.Repository, principals PrincipalLookup, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Service{
		repo:       repo,
		principals: principals,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new session for the principal and returns its opaque id.
func (s *Service) Create(ctx context.Context, principalID string) (string, error) {
	id, err := security.NewSessionID()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess := &domain.Session{
		ID:          id,
		PrincipalID: principalID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		return "", err
	}
	return id, nil
}

// Validate resolves the session id to its principal id. Expired entries are
// deleted as part of the lookup, so correctness never depends on the
// background sweep. Absent or malformed ids return ErrInvalidSession without
// a storage error; a live session whose principal has been deactivated
// returns ErrPrincipalIneligible.
func (s *Service) Validate(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrInvalidSession
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrInvalidSession
	}
	if sess.Expired(s.now()) {
		_ = s.repo.Delete(ctx, id)
		return "", ErrInvalidSession
	}
	if s.principals != nil {
		p, err := s.principals.GetPrincipal(ctx, sess.PrincipalID)
		if err != nil {
			return "", err
		}
		if p == nil || !p.Active {
			return "", ErrPrincipalIneligible
		}
	}
	return sess.PrincipalID, nil
}

// Invalidate removes the session. Removing a non-existent session is a
// no-op, not an error.
func (s *Service) Invalidate(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// InvalidateAllForPrincipal removes every session bound to the principal.
// Used when a principal's access must be revoked immediately.
func (s *Service) InvalidateAllForPrincipal(ctx context.Context, principalID string) error {
	_, err := s.repo.DeleteByPrincipal(ctx, principalID)
	return err
}

// SweepExpired removes every expired entry and returns how many were
// removed. Pure hygiene: lazy expiry in Validate already enforces the TTL,
// this only bounds table growth.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// TTL returns the fixed session lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }
