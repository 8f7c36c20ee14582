package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"confsched/internal/adapters/storage"
	domain "confsched/internal/domain/session"
)

const (
	timeLayout = time.RFC3339Nano
	nonceSize  = 24
)

// ErrSealedCorrupt is returned when a stored refresh credential cannot be opened,
// usually because the session key changed.
var ErrSealedCorrupt = errors.New("sealed refresh credential cannot be opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	key [32]byte
}

// NewSQLiteStore creates a session store sealing refresh credentials with key.
// PRE: key is the 32-byte session key from config
func NewSQLiteStore(db storage.SQLDB, key [32]byte) *SQLiteStore {
	return &SQLiteStore{db: db, key: key}
}

func (s *SQLiteStore) seal(plain string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

func (s *SQLiteStore) open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrSealedCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrSealedCorrupt
	}
	return string(plain), nil
}

// Save inserts or replaces a session.
// PRE: sess.Validate() == nil
// POST: The session is persisted with its refresh credential sealed
func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	sealed, err := s.seal(sess.RefreshToken)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO admin_session (token, email, name, role, refresh_sealed, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.Token, sess.Email, sess.Name, sess.Role, sealed,
		sess.CreatedAt.UTC().Format(timeLayout), sess.ExpiresAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the session for token with its refresh credential opened.
// POST: Returns ErrNotFound for unknown tokens; expiry is the caller's concern
func (s *SQLiteStore) Get(ctx context.Context, token string) (domain.Session, error) {
	var sess domain.Session
	var sealed []byte
	var created, expires string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, email, name, role, refresh_sealed, created_at, expires_at FROM admin_session WHERE token = ?`, token).
		Scan(&sess.Token, &sess.Email, &sess.Name, &sess.Role, &sealed, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if sess.RefreshToken, err = s.open(sealed); err != nil {
		return domain.Session{}, err
	}
	if sess.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.ExpiresAt, err = time.Parse(timeLayout, expires); err != nil {
		return domain.Session{}, fmt.Errorf("parse expires_at: %w", err)
	}
	return sess, nil
}

// Delete removes the session for token.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM admin_session WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
// POST: Returns the number of removed sessions
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, expires_at FROM admin_session`)
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	var expired []string
	for rows.Next() {
		var token, expires string
		if err := rows.Scan(&token, &expires); err != nil {
			rows.Close()
			return 0, err
		}
		t, err := time.Parse(timeLayout, expires)
		if err != nil || !now.Before(t) {
			expired = append(expired, token)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}

	var n int64
	for _, token := range expired {
		if err := s.Delete(ctx, token); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
