// Package devotp keeps the last plain code per phone in memory. Used only when dev OTP mode is enabled.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds the latest plain code per phone for dev-only retrieval.
type Store interface {
	// Put stores code for phone until expiresAt, replacing any earlier code.
	Put(ctx context.Context, phone, code string, expiresAt time.Time)
	// Get returns the code for phone if present and not expired.
	Get(ctx context.Context, phone string) (code string, ok bool)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

// NewMemoryStore returns an empty dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{code: code, expiresAt: expiresAt}
}

// Get drops the entry when it has expired.
func (s *MemoryStore) Get(ctx context.Context, phone string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.m[phone]; ok && cur == e {
			delete(s.m, phone)
		}
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}
