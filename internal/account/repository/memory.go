package repository

import (
	"context"
	"sync"
	"time"

	"agrovision-auth/internal/account/domain"
)

// MemoryRepository is an in-memory Repository for tests and single-process runs.
// The uniqueness check and insert happen under one lock.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
	byPhone map[string]string
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return domain.ErrDuplicateIdentity
	}
	if _, ok := r.byPhone[a.Phone]; ok {
		return domain.ErrDuplicateIdentity
	}
	c := *a
	r.byID[a.ID] = &c
	r.byEmail[a.Email] = a.ID
	r.byPhone[a.Phone] = a.ID
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byEmail[email]), nil
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byPhone[phone]), nil
}

func (r *MemoryRepository) MarkVerified(ctx context.Context, phone string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[r.byPhone[phone]]
	if !ok {
		return domain.ErrNotFound
	}
	if a.IsVerified {
		return nil
	}
	at = at.UTC()
	a.IsVerified = true
	a.VerifiedAt = &at
	a.UpdatedAt = at
	return nil
}

// copyOf returns a detached copy so callers cannot mutate stored state. Caller holds the lock.
func (r *MemoryRepository) copyOf(id string) *domain.Account {
	a, ok := r.byID[id]
	if !ok {
		return nil
	}
	c := *a
	if a.VerifiedAt != nil {
		v := *a.VerifiedAt
		c.VerifiedAt = &v
	}
	return &c
}
