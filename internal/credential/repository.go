// Package credential stores password hashes for accounts, separate from the account record.
package credential

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Credential is the password hash for one account.
type Credential struct {
	AccountID    string    `db:"account_id"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repository persists credentials keyed by account id. Get returns nil, nil when none is stored.
type Repository interface {
	Put(ctx context.Context, c *Credential) error
	Get(ctx context.Context, accountID string) (*Credential, error)
}

// MemoryRepository is an in-memory Repository.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]Credential
}

// NewMemoryRepository returns an empty in-memory credential repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]Credential)}
}

func (r *MemoryRepository) Put(ctx context.Context, c *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[c.AccountID] = *c
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, accountID string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.m[accountID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// PostgresRepository stores credentials in the credentials table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a credential repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlx.NewDb(db, "pgx")}
}

// Put inserts or replaces the hash for c.AccountID.
func (r *PostgresRepository) Put(ctx context.Context, c *Credential) error {
	return Upsert(ctx, r.db, c)
}

// Upsert writes c through e, which may be a transaction shared with other writes.
func Upsert(ctx context.Context, e sqlx.ExtContext, c *Credential) error {
	_, err := sqlx.NamedExecContext(ctx, e, `INSERT INTO credentials (account_id, password_hash, created_at, updated_at)
		VALUES (:account_id, :password_hash, :created_at, :updated_at)
		ON CONFLICT (account_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`, c)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*Credential, error) {
	var c Credential
	err := r.db.GetContext(ctx, &c, `SELECT account_id, password_hash, created_at, updated_at FROM credentials WHERE account_id = $1`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
