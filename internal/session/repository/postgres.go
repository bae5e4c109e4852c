package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"supportdesk/internal/session/domain"
)

// PostgresRepository persists sessions in the sessions table for deployments
// that need sessions to survive a restart.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists the session. The session must have ID set.
func (r *PostgresRepository) Insert(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, principal_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		s.ID, s.PrincipalID, s.CreatedAt, s.ExpiresAt)
	return err
}

// Get returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		"SELECT id, principal_id, created_at, expires_at FROM sessions WHERE id = $1", id).
		Scan(&s.ID, &s.PrincipalID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes the session. Missing ids are a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

// DeleteByPrincipal removes every session bound to the principal.
func (r *PostgresRepository) DeleteByPrincipal(ctx context.Context, principalID string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE principal_id = $1", principalID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteExpired removes every session whose expiry has passed at now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
