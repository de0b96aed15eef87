package repository

import (
	"context"
	"sync"

	"agrovision-auth/internal/otp/domain"
)

// MemoryRepository is an in-memory Repository.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]domain.Challenge
}

// NewMemoryRepository returns a new in-memory challenge repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]domain.Challenge)}
}

func (r *MemoryRepository) Put(ctx context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[c.Phone] = *c
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, phone string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[phone]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) DeleteIfMatch(ctx context.Context, phone, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[phone]
	if !ok || c.CodeHash != codeHash {
		return false, nil
	}
	delete(r.m, phone)
	return true, nil
}
