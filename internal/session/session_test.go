package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
)

func verifiedAsha() *verificationv1.User {
	return &verificationv1.User{
		ID:                "acc-1",
		Name:              "Asha",
		Email:             "asha@x.com",
		Phone:             "+911234567890",
		PreferredLanguage: "hi",
		IsVerified:        true,
	}
}

type memStore struct {
	st      *State
	saveErr error
	cleared int
}

func (m *memStore) Load() (*State, error) { return m.st, nil }
func (m *memStore) Save(s *State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.st = s
	return nil
}
func (m *memStore) Clear() error {
	m.cleared++
	m.st = nil
	return nil
}

func TestSession_SetAndClear(t *testing.T) {
	store := &memStore{}
	s := New(store)

	_, ok := s.Current()
	assert.False(t, ok)

	require.NoError(t, s.Set(verifiedAsha(), "token-1"))
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "acc-1", cur.User.ID)
	assert.Equal(t, "token-1", cur.AccessToken)
	assert.False(t, cur.SignedInAt.IsZero())
	require.NotNil(t, store.st)

	require.NoError(t, s.Clear())
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Nil(t, store.st)
}

func TestSession_RefusesUnverified(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Set(verifiedAsha(), "token-1"))

	u := verifiedAsha()
	u.ID = "acc-2"
	u.IsVerified = false
	err := s.Set(u, "token-2")
	assert.ErrorIs(t, err, ErrUnverified)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "acc-1", cur.User.ID, "refused Set must not replace the current account")

	assert.ErrorIs(t, s.Set(nil, ""), ErrNoAccount)
}

func TestSession_SaveFailureLeavesSessionUnchanged(t *testing.T) {
	s := New(&memStore{saveErr: errors.New("disk full")})
	err := s.Set(verifiedAsha(), "token")
	require.Error(t, err)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_Restore(t *testing.T) {
	saved := &State{User: *verifiedAsha(), AccessToken: "saved"}
	s := New(&memStore{st: saved})
	require.NoError(t, s.Restore())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "saved", cur.AccessToken)
}

func TestSession_RestoreDiscardsUnverified(t *testing.T) {
	u := verifiedAsha()
	u.IsVerified = false
	store := &memStore{st: &State{User: *u}}
	s := New(store)

	require.NoError(t, s.Restore())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, store.cleared)
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(verifiedAsha(), "t")
		}()
		go func() {
			defer wg.Done()
			if cur, ok := s.Current(); ok {
				assert.True(t, cur.User.IsVerified)
			}
		}()
	}
	wg.Wait()
}

func TestFileStore_RoundTripThroughSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := New(NewFileStore(path))
	require.NoError(t, s.Set(verifiedAsha(), "token-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := New(NewFileStore(path))
	require.NoError(t, restored.Restore())
	cur, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "Asha", cur.User.Name)
	assert.Equal(t, "token-1", cur.AccessToken)

	require.NoError(t, restored.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, NewFileStore(path).Clear(), "clearing a missing file is not an error")
}

func TestFileStore_LoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(filepath.Join(dir, "none.json")).Load()
	require.NoError(t, err)
	assert.Nil(t, st)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = NewFileStore(bad).Load()
	assert.Error(t, err)
}
