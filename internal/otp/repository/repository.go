package repository

import (
	"context"

	"agrovision-auth/internal/otp/domain"
)

// Repository defines persistence for OTP challenges, keyed by phone.
type Repository interface {
	// Put stores c, replacing any challenge already held for c.Phone.
	Put(ctx context.Context, c *domain.Challenge) error
	// Get returns the challenge for phone, or nil if none is held. Expired challenges are still returned.
	Get(ctx context.Context, phone string) (*domain.Challenge, error)
	// DeleteIfMatch removes the challenge for phone only if its code hash is still codeHash.
	// Reports whether a challenge was removed; of two concurrent calls at most one gets true.
	DeleteIfMatch(ctx context.Context, phone, codeHash string) (bool, error)
}
