package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pschneider14/venturelens/internal/domain"
)

type stubAuth struct {
	token string
	err   error
	calls int
}

func (a *stubAuth) Login(_ context.Context, _, _ string) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.token, nil
}

func tokenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestEstablish_PersistsAndActivatesSession(t *testing.T) {
	path := tokenPath(t)
	store := NewStore(&stubAuth{token: "jwt-token"}, path)

	sess, err := store.Establish(context.Background(), "alice", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", sess.Credential)
	assert.Equal(t, "alice", sess.Subject)

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, sess, current)

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "jwt-token", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEstablish_LoginFailureLeavesNoSession(t *testing.T) {
	path := tokenPath(t)
	store := NewStore(&stubAuth{err: domain.ErrInvalidCredentials}, path)

	_, err := store.Establish(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, ok := store.Current()
	assert.False(t, ok)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRestore(t *testing.T) {
	t.Run("round-trips a persisted session", func(t *testing.T) {
		path := tokenPath(t)
		first := NewStore(&stubAuth{token: "jwt-token"}, path)
		_, err := first.Establish(context.Background(), "alice", "hunter2")
		require.NoError(t, err)

		second := NewStore(&stubAuth{}, path)
		ok, err := second.Restore()

		require.NoError(t, err)
		assert.True(t, ok)

		current, has := second.Current()
		require.True(t, has)
		assert.Equal(t, "alice", current.Subject)
		assert.Equal(t, "jwt-token", current.Credential)
	})

	t.Run("no persisted credential", func(t *testing.T) {
		store := NewStore(&stubAuth{}, tokenPath(t))

		ok, err := store.Restore()

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt file is discarded", func(t *testing.T) {
		path := tokenPath(t)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		store := NewStore(&stubAuth{}, path)
		ok, err := store.Restore()

		require.NoError(t, err)
		assert.False(t, ok)

		_, statErr := os.Stat(path)
		assert.True(t, errors.Is(statErr, os.ErrNotExist), "corrupt file should be removed")
	})

	t.Run("empty credential counts as signed out", func(t *testing.T) {
		path := tokenPath(t)
		require.NoError(t, os.WriteFile(path, []byte(`{"credential":"","subject":"alice"}`), 0o600))

		store := NewStore(&stubAuth{}, path)
		ok, err := store.Restore()

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("does not validate remotely", func(t *testing.T) {
		path := tokenPath(t)
		first := NewStore(&stubAuth{token: "jwt-token"}, path)
		_, err := first.Establish(context.Background(), "alice", "hunter2")
		require.NoError(t, err)

		auth := &stubAuth{}
		second := NewStore(auth, path)
		_, err = second.Restore()

		require.NoError(t, err)
		assert.Equal(t, 0, auth.calls)
	})
}

func TestClear(t *testing.T) {
	path := tokenPath(t)
	store := NewStore(&stubAuth{token: "jwt-token"}, path)
	_, err := store.Establish(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, store.Clear())

	_, ok := store.Current()
	assert.False(t, ok)
	_, ok = store.Token()
	assert.False(t, ok)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	// Idempotent.
	assert.NoError(t, store.Clear())
}

func TestDefaultTokenPath(t *testing.T) {
	path := DefaultTokenPath()
	assert.Contains(t, path, "venturelens")
	assert.Equal(t, "session.json", filepath.Base(path))
}
