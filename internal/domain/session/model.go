package session

import (
	"errors"
	"time"
)

// RoleAdmin is the only staff role; the schedule API decides who may log in.
const RoleAdmin = "admin"

// DefaultTTL is how long a staff session lives without re-login.
const DefaultTTL = 24 * time.Hour

// Domain errors
var (
	ErrEmptyToken        = errors.New("session token cannot be empty")
	ErrEmptyEmail        = errors.New("session email cannot be empty")
	ErrEmptyRefreshToken = errors.New("session refresh credential cannot be empty")
)

// Session is a logged-in staff member.
// RefreshToken is the schedule API's refresh credential; it never leaves the server.
type Session struct {
	Token        string
	Email        string
	Name         string
	Role         string
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// New builds a session that expires ttl after now.
func New(token, email, name, role, refreshToken string, now time.Time, ttl time.Duration) Session {
	if role == "" {
		role = RoleAdmin
	}
	return Session{
		Token:        token,
		Email:        email,
		Name:         name,
		Role:         role,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Validate checks the session invariants.
// PRE: none
// POST: Returns nil if the session can be stored
func (s Session) Validate() error {
	if s.Token == "" {
		return ErrEmptyToken
	}
	if s.Email == "" {
		return ErrEmptyEmail
	}
	if s.RefreshToken == "" {
		return ErrEmptyRefreshToken
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
