// Package session holds the signed-in account on the client side and persists it between runs.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
)

var (
	// ErrUnverified is returned when an unverified account is offered to the session.
	ErrUnverified = errors.New("session: account is not verified")
	// ErrNoAccount is returned when Set is called without an account.
	ErrNoAccount = errors.New("session: no account")
)

// State is the persisted session: the account and the access token it was issued.
type State struct {
	User        verificationv1.User `json:"user"`
	AccessToken string              `json:"accessToken,omitempty"`
	SignedInAt  time.Time           `json:"signedInAt"`
}

// Persister saves and loads the session between runs. Load returns nil, nil when nothing is saved.
type Persister interface {
	Load() (*State, error)
	Save(s *State) error
	Clear() error
}

// Session holds zero or one verified account. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	cur   *State
	store Persister
	now   func() time.Time
}

// New returns an empty session backed by store. store may be nil for a memory-only session.
func New(store Persister) *Session {
	return &Session{store: store, now: time.Now}
}

// Set signs in u. An unverified account is refused and leaves the current session unchanged.
func (s *Session) Set(u *verificationv1.User, accessToken string) error {
	if u == nil {
		return ErrNoAccount
	}
	if !u.IsVerified {
		return ErrUnverified
	}
	st := &State{User: *u, AccessToken: accessToken, SignedInAt: s.now().UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Save(st); err != nil {
			return fmt.Errorf("session: save: %w", err)
		}
	}
	s.cur = st
	return nil
}

// Current returns a copy of the signed-in state, or false when nobody is signed in.
func (s *Session) Current() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return State{}, false
	}
	return *s.cur, true
}

// Clear signs out and removes the saved session.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("session: clear: %w", err)
		}
	}
	return nil
}

// Restore loads the saved session. A saved account that is not verified is discarded,
// so the session never starts out holding one.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	st, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("session: load: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == nil {
		s.cur = nil
		return nil
	}
	if !st.User.IsVerified {
		s.cur = nil
		return s.store.Clear()
	}
	s.cur = st
	return nil
}
