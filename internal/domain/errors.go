package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the server rejected the session credential.
	// The only error that tears down the session.
	ErrUnauthenticated = errors.New("session invalid or expired")

	// ErrAccessDenied means the server refused a directory request because
	// the free quota is exhausted or the subscription has lapsed.
	ErrAccessDenied = errors.New("access denied: subscription required")

	// ErrInvalidCredentials means a login attempt was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoSession means an authenticated call was attempted without a session.
	ErrNoSession = errors.New("no active session")

	// ErrNoCursor means pagination was advanced in a direction with no page.
	ErrNoCursor = errors.New("no further page in that direction")
)

// NetworkError wraps a transport-level failure. It is retryable: the caller
// decides whether and when to retry, the coordinator never retries on its own.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient condition that may succeed
// on a later attempt. Authorization and quota failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrInvalidCredentials) {
		return false
	}
	return true
}
