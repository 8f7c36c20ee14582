// Package session persists staff sessions so a restart does not log everyone out.
// The API refresh credential is sealed with NaCl secretbox before it touches disk.
package session

import (
	"context"
	"errors"
	"time"

	domain "confsched/internal/domain/session"
)

// ErrNotFound is returned when no live session matches a token.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session persistence.
type Store interface {
	// Save inserts or replaces a session.
	// PRE: s.Validate() == nil
	Save(ctx context.Context, s domain.Session) error

	// Get returns the session for token.
	// POST: Returns ErrNotFound for unknown tokens
	Get(ctx context.Context, token string) (domain.Session, error)

	// Delete removes the session for token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes sessions whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

var _ Store = (*SQLiteStore)(nil)
