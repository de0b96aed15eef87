package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"agrovision-auth/internal/otp/domain"
)

type challengeRow struct {
	Phone     string    `db:"phone"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a challenge repository backed by the otp_challenges table.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlx.NewDb(db, "pgx")}
}

// Put upserts the challenge on phone so the previous one is overwritten in the same statement.
func (r *PostgresRepository) Put(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO otp_challenges (phone, code_hash, expires_at, created_at)
		VALUES (:phone, :code_hash, :expires_at, :created_at)
		ON CONFLICT (phone) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		challengeRow{Phone: c.Phone, CodeHash: c.CodeHash, ExpiresAt: c.ExpiresAt.UTC(), CreatedAt: c.CreatedAt.UTC()})
	return err
}

// Get returns the challenge for phone, or nil if not found.
func (r *PostgresRepository) Get(ctx context.Context, phone string) (*domain.Challenge, error) {
	var row challengeRow
	err := r.db.GetContext(ctx, &row, `SELECT phone, code_hash, expires_at, created_at FROM otp_challenges WHERE phone = $1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Challenge{Phone: row.Phone, CodeHash: row.CodeHash, ExpiresAt: row.ExpiresAt, CreatedAt: row.CreatedAt}, nil
}

func (r *PostgresRepository) DeleteIfMatch(ctx context.Context, phone, codeHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE phone = $1 AND code_hash = $2`, phone, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
