// Package otp issues and verifies the single-use phone verification codes.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrovision-auth/internal/otp/domain"
	"agrovision-auth/internal/otp/repository"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 300 * time.Second

var (
	ErrChallengeNotFound = errors.New("no OTP found for this phone number")
	ErrChallengeExpired  = errors.New("OTP has expired")
	ErrCodeMismatch      = errors.New("invalid OTP")
)

// Store implements challenge issuance and verification over a Repository.
type Store struct {
	repo     repository.Repository
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithGenerator overrides the code generator.
func WithGenerator(gen func() (string, error)) StoreOption {
	return func(s *Store) { s.generate = gen }
}

// NewStore returns a Store. ttl <= 0 uses DefaultTTL.
func NewStore(repo repository.Repository, ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{repo: repo, ttl: ttl, now: time.Now, generate: GenerateCode}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the validity window of issued codes.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue creates a fresh challenge for phone, replacing any prior one, and returns the plain code.
// The code is only for the Notifier; just its hash is persisted.
func (s *Store) Issue(ctx context.Context, phone string) (string, time.Time, error) {
	code, err := s.generate()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp: generate code: %w", err)
	}
	now := s.now().UTC()
	c := &domain.Challenge{
		Phone:     phone,
		CodeHash:  HashCode(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return "", time.Time{}, fmt.Errorf("otp: put challenge: %w", err)
	}
	return code, c.ExpiresAt, nil
}

// Verify checks code against the challenge for phone. It returns ErrChallengeNotFound when none is held,
// ErrChallengeExpired (and deletes it) when past expiry, ErrCodeMismatch when the code differs
// (the challenge is kept), and nil after consuming the challenge. Other errors come from the repository.
func (s *Store) Verify(ctx context.Context, phone, code string) error {
	c, err := s.repo.Get(ctx, phone)
	if err != nil {
		return fmt.Errorf("otp: get challenge: %w", err)
	}
	if c == nil {
		return ErrChallengeNotFound
	}
	if c.Expired(s.now()) {
		if _, err := s.repo.DeleteIfMatch(ctx, phone, c.CodeHash); err != nil {
			return fmt.Errorf("otp: delete expired challenge: %w", err)
		}
		return ErrChallengeExpired
	}
	if !CodeEqual(code, c.CodeHash) {
		return ErrCodeMismatch
	}
	deleted, err := s.repo.DeleteIfMatch(ctx, phone, c.CodeHash)
	if err != nil {
		return fmt.Errorf("otp: consume challenge: %w", err)
	}
	if !deleted {
		// Consumed or replaced between the read and the delete.
		return ErrChallengeNotFound
	}
	return nil
}

// Status describes the challenge currently held for a phone.
type Status struct {
	Exists    bool
	Expired   bool
	Remaining time.Duration
}

// Peek reports the state of the challenge for phone without changing it.
func (s *Store) Peek(ctx context.Context, phone string) (Status, error) {
	c, err := s.repo.Get(ctx, phone)
	if err != nil {
		return Status{}, fmt.Errorf("otp: get challenge: %w", err)
	}
	if c == nil {
		return Status{}, nil
	}
	now := s.now()
	return Status{Exists: true, Expired: c.Expired(now), Remaining: c.Remaining(now)}, nil
}
