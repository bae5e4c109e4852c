package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"supportdesk/internal/identity/domain"
	"supportdesk/internal/role"
)

// PostgresRepository persists principals in the principals table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a principal repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const principalColumns = "id, email, name, role, active, password_hash, created_at, updated_at"

// GetByID returns the principal for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE id = $1", id)
	return scanPrincipal(row)
}

// GetByEmail returns the principal for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE email = $1", email)
	return scanPrincipal(row)
}

// Create persists the principal. The principal must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Principal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principals (id, email, name, role, active, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Email, p.Name, p.Role.String(), p.Active, p.PasswordHash, p.CreatedAt, p.UpdatedAt)
	return err
}

// SetActive flips the active flag for the given principal.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE principals SET active = $2, updated_at = $3 WHERE id = $1",
		id, active, time.Now().UTC())
	return err
}

func scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var p domain.Principal
	var roleStr string
	err := row.Scan(&p.ID, &p.Email, &p.Name, &roleStr, &p.Active, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := role.Parse(roleStr)
	if err != nil {
		return nil, err
	}
	p.Role = parsed
	return &p, nil
}
