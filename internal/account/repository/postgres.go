package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"agrovision-auth/internal/account/domain"
	"agrovision-auth/internal/credential"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type accountRow struct {
	ID                string       `db:"id"`
	Name              string       `db:"name"`
	Email             string       `db:"email"`
	Phone             string       `db:"phone"`
	PreferredLanguage string       `db:"preferred_language"`
	IsVerified        bool         `db:"is_verified"`
	VerifiedAt        sql.NullTime `db:"verified_at"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

const insertAccount = `INSERT INTO accounts
	(id, name, email, phone, preferred_language, is_verified, verified_at, created_at, updated_at)
	VALUES (:id, :name, :email, :phone, :preferred_language, :is_verified, :verified_at, :created_at, :updated_at)`

const selectAccount = `SELECT id, name, email, phone, preferred_language, is_verified, verified_at, created_at, updated_at FROM accounts`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlx.NewDb(db, "pgx")}
}

// Create inserts the account. The unique indexes on email and phone make the check atomic;
// a unique violation is reported as domain.ErrDuplicateIdentity.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.NamedExecContext(ctx, insertAccount, domainToRow(a))
	return insertErr(err)
}

// CreateWithCredential inserts a and its password hash in one transaction. Either both rows
// are written or neither is.
func (r *PostgresRepository) CreateWithCredential(ctx context.Context, a *domain.Account, c *credential.Credential) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, insertAccount, domainToRow(a)); err != nil {
		return insertErr(err)
	}
	if err := credential.Upsert(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

func insertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateIdentity
	}
	return err
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE id = $1`, id)
}

// GetByEmail returns the account with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE email = $1`, email)
}

// GetByPhone returns the account with the given phone, or nil if not found.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE phone = $1`, phone)
}

// MarkVerified flips is_verified. verified_at is only written the first time.
func (r *PostgresRepository) MarkVerified(ctx context.Context, phone string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts
		SET is_verified = TRUE, verified_at = COALESCE(verified_at, $2), updated_at = $2
		WHERE phone = $1`, phone, at.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

func domainToRow(a *domain.Account) *accountRow {
	row := &accountRow{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Phone:             a.Phone,
		PreferredLanguage: string(a.PreferredLanguage),
		IsVerified:        a.IsVerified,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.VerifiedAt != nil {
		row.VerifiedAt = sql.NullTime{Time: *a.VerifiedAt, Valid: true}
	}
	return row
}

func rowToDomain(row *accountRow) *domain.Account {
	a := &domain.Account{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone,
		PreferredLanguage: domain.Language(row.PreferredLanguage),
		IsVerified:        row.IsVerified,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.VerifiedAt.Valid {
		t := row.VerifiedAt.Time
		a.VerifiedAt = &t
	}
	return a
}
