package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"confsched/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionBackend persists sessions across restarts.
type SessionBackend interface {
	Save(ctx context.Context, s session.Session) error
	Get(ctx context.Context, token string) (session.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionStore caches sessions in memory in front of an optional backend.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	backend  SessionBackend
	now      func() time.Time
}

// NewSessionStore creates a session store. A nil backend keeps sessions in memory only.
func NewSessionStore(backend SessionBackend) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session.Session),
		backend:  backend,
		now:      time.Now,
	}
}

// Save stores a session in the backend and the cache.
// PRE: s.Validate() == nil
// POST: Get(s.Token) returns s until it expires
func (ss *SessionStore) Save(ctx context.Context, s session.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if ss.backend != nil {
		if err := ss.backend.Save(ctx, s); err != nil {
			return err
		}
	}
	ss.mu.Lock()
	ss.sessions[s.Token] = s
	ss.mu.Unlock()
	return nil
}

// Get retrieves a live session by token, falling back to the backend on a cache miss.
// PRE: none
// POST: Expired sessions are removed and reported as missing
func (ss *SessionStore) Get(ctx context.Context, token string) (session.Session, bool) {
	if token == "" {
		return session.Session{}, false
	}
	ss.mu.RLock()
	s, ok := ss.sessions[token]
	ss.mu.RUnlock()

	if !ok && ss.backend != nil {
		var err error
		s, err = ss.backend.Get(ctx, token)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Debug("session_lookup_miss", "error", err)
			}
			return session.Session{}, false
		}
		ss.mu.Lock()
		ss.sessions[token] = s
		ss.mu.Unlock()
	}
	if !ok && ss.backend == nil {
		return session.Session{}, false
	}

	if s.Expired(ss.now()) {
		_ = ss.Delete(ctx, token)
		return session.Session{}, false
	}
	return s, true
}

// Delete removes a session from the cache and the backend.
// POST: Get(token) reports missing
func (ss *SessionStore) Delete(ctx context.Context, token string) error {
	ss.mu.Lock()
	delete(ss.sessions, token)
	ss.mu.Unlock()
	if ss.backend != nil {
		return ss.backend.Delete(ctx, token)
	}
	return nil
}

// DeleteExpired evicts expired sessions from the cache and the backend.
// POST: Returns the number of sessions the backend removed, or the cache count without one
func (ss *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var evicted int64
	ss.mu.Lock()
	for token, s := range ss.sessions {
		if s.Expired(now) {
			delete(ss.sessions, token)
			evicted++
		}
	}
	ss.mu.Unlock()
	if ss.backend != nil {
		return ss.backend.DeleteExpired(ctx, now)
	}
	return evicted, nil
}

// SessionCookieName is the cookie carrying the local session token.
const SessionCookieName = "confsched_session"

// Auth returns middleware that loads the session named by the cookie into the context.
// It does NOT block unauthenticated requests; use RequireAuth for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				if s, ok := sessions.Get(r.Context(), cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks requests without a staff session.
// JSON endpoints under /api/ get 401; pages redirect to /login.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Unauthorized answers an unauthenticated request in the form its caller expects.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(session.Session)
	return s, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// IsAdmin checks if the current session is an admin.
func IsAdmin(ctx context.Context) bool {
	s, ok := GetSessionFromContext(ctx)
	return ok && s.Role == session.RoleAdmin
}

// SetSessionCookie sets the session cookie, expiring with the session.
func SetSessionCookie(w http.ResponseWriter, s session.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  s.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// GenerateToken returns a random 32-byte hex session token.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
