// Package session owns the single live session and its durable persistence.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"

	"github.com/pschneider14/venturelens/internal/domain"
)

const appName = "venturelens"

// Authenticator exchanges user credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Store holds the process-wide session. There is exactly one live session per
// running client; every outbound request reads it through Token.
type Store struct {
	auth Authenticator
	path string

	mu      sync.RWMutex
	current domain.Session
}

// NewStore creates a session store persisting the credential at path.
func NewStore(auth Authenticator, path string) *Store {
	return &Store{auth: auth, path: path}
}

// DefaultTokenPath returns the credential location under the XDG state
// directory, e.g. ~/.local/state/venturelens/session.json.
func DefaultTokenPath() string {
	return filepath.Join(xdg.StateHome, appName, "session.json")
}

// Restore loads a previously persisted session, if any. The credential is not
// validated remotely; validation is deferred to the first real request.
func (s *Store) Restore() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read session file: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// Corrupt state file: treat as signed out rather than failing startup.
		slog.Warn("Discarding unreadable session file", "path", s.path, "error", err)
		_ = os.Remove(s.path)
		return false, nil
	}
	if !sess.Valid() {
		return false, nil
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return true, nil
}

// Establish exchanges credentials for a token, persists it, and makes the
// resulting session current.
func (s *Store) Establish(ctx context.Context, username, password string) (domain.Session, error) {
	token, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{Credential: token, Subject: username}
	if err := s.persist(sess); err != nil {
		// The session is still usable for this process lifetime.
		slog.Warn("Failed to persist session credential", "error", err)
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// Clear removes the persisted credential and unsets the session. Idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.current = domain.Session{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Current returns the live session, if any.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current.Valid()
}

// Token implements api.TokenSource. It is read at request-build time, so a
// logout is observed by every request issued afterwards.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Credential, s.current.Valid()
}

func (s *Store) persist(sess domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
