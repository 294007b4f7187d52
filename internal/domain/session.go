package domain

import "context"

// Session is the single authenticated identity of the running client.
// Subject is present iff Credential is present.
type Session struct {
	Credential string `json:"credential"`
	Subject    string `json:"subject"`
}

// Valid reports whether the session carries a credential.
func (s Session) Valid() bool {
	return s.Credential != ""
}

// SessionStore owns the process-wide session and its durable persistence.
type SessionStore interface {
	// Restore loads a previously persisted session without remote validation.
	// Returns false when no credential is persisted.
	Restore() (bool, error)

	// Establish exchanges credentials for a token and persists the result.
	Establish(ctx context.Context, username, password string) (Session, error)

	// Clear removes the persisted credential and unsets the session. Idempotent.
	Clear() error

	// Current returns the live session, if any.
	Current() (Session, bool)
}
