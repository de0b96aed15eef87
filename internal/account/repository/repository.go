package repository

import (
	"context"
	"time"

	"agrovision-auth/internal/account/domain"
)

// Repository defines persistence for accounts. Lookups return nil, nil when no account matches.
type Repository interface {
	// Create persists a. Returns domain.ErrDuplicateIdentity if the email or phone is already taken.
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	// MarkVerified sets IsVerified for the account with phone. Idempotent; VerifiedAt keeps its first value.
	// Returns domain.ErrNotFound if no account has that phone.
	MarkVerified(ctx context.Context, phone string, at time.Time) error
}
