package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"supportdesk/internal/token/domain"
)

// PostgresRepository persists credential tokens in the credential_tokens
// table. The UNIQUE constraint on value backs collision detection and the
// conditional UPDATE backs the atomic consume.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = "id, value, role, active, created_by, description, created_at, expires_at"

// Create persists the token. Value collisions map to ErrDuplicateValue.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credential_tokens (id, value, role, active, created_by, description, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Value, t.Role, t.Active, t.CreatedBy, t.Description, t.CreatedAt, nullTime(t.ExpiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateValue
		}
		return err
	}
	return nil
}

// GetByID returns the token for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM credential_tokens WHERE id = $1", id)
	return scanToken(row)
}

// GetByValue returns the token for value, or nil if not found.
func (r *PostgresRepository) GetByValue(ctx context.Context, value string) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM credential_tokens WHERE value = $1", value)
	return scanToken(row)
}

// Deactivate flips the token inactive; reports whether this call did the flip.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE credential_tokens SET active = FALSE WHERE id = $1 AND active", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeactivateByValue flips the token inactive by value; first caller wins.
func (r *PostgresRepository) DeactivateByValue(ctx context.Context, value string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE credential_tokens SET active = FALSE WHERE value = $1 AND active", value)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// List returns every token, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Token, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM credential_tokens ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Token
	for rows.Next() {
		var t domain.Token
		var exp sql.NullTime
		if err := rows.Scan(&t.ID, &t.Value, &t.Role, &t.Active, &t.CreatedBy, &t.Description, &t.CreatedAt, &exp); err != nil {
			return nil, err
		}
		if exp.Valid {
			t.ExpiresAt = &exp.Time
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func scanToken(row *sql.Row) (*domain.Token, error) {
	var t domain.Token
	var exp sql.NullTime
	err := row.Scan(&t.ID, &t.Value, &t.Role, &t.Active, &t.CreatedBy, &t.Description, &t.CreatedAt, &exp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if exp.Valid {
		t.ExpiresAt = &exp.Time
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
