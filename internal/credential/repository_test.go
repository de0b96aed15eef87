package credential

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	got, err := r.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC()
	require.NoError(t, r.Put(ctx, &Credential{AccountID: "acc-1", PasswordHash: "h1", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, r.Put(ctx, &Credential{AccountID: "acc-1", PasswordHash: "h2", CreatedAt: now, UpdatedAt: now}))

	got, err = r.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h2", got.PasswordHash)
}

func TestPostgresRepository_PutGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewPostgresRepository(db)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO credentials (.+) ON CONFLICT \\(account_id\\)").
		WithArgs("acc-1", "h1", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Put(context.Background(), &Credential{AccountID: "acc-1", PasswordHash: "h1", CreatedAt: now, UpdatedAt: now}))

	mock.ExpectQuery("SELECT account_id, password_hash, created_at, updated_at FROM credentials WHERE account_id = \\$1").
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "password_hash", "created_at", "updated_at"}).AddRow("acc-1", "h1", now, now))
	got, err := r.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.PasswordHash)

	mock.ExpectQuery("SELECT (.+) FROM credentials").WithArgs("acc-2").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "password_hash", "created_at", "updated_at"}))
	got, err = r.Get(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}
