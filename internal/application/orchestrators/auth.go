package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"confsched/internal/adapters/api"
	"confsched/internal/domain/audit"
	"confsched/internal/domain/session"
)

// AuthAPI is the part of the schedule API that issues and revokes credentials.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// SessionStoreForAuth defines the store interface needed by Login/Logout.
type SessionStoreForAuth interface {
	Save(ctx context.Context, s session.Session) error
	Delete(ctx context.Context, token string) error
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	API           AuthAPI
	Sessions      SessionStoreForAuth
	Audit         AuditRecorder
	GenerateToken func() (string, error)
	Now           func() time.Time
	TTL           time.Duration
}

// ExecuteLogin forwards credentials to the schedule API and opens a local staff session.
// PRE: none
// POST: On success a session holding the API refresh credential is persisted;
// rejected credentials return ErrInvalidCredentials and are audited as a warning
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (session.Session, error) {
	if input.Email == "" || input.Password == "" {
		return session.Session{}, ErrInvalidCredentials
	}

	res, err := deps.API.Login(ctx, input.Email, input.Password)
	if errors.Is(err, api.ErrUnauthorized) {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email)
		recordAudit(ctx, deps.Audit, audit.NewEvent(input.Email, "", audit.CategorySecurity, audit.ActionLogin, deps.Now()).
			WithSeverity(audit.SeverityWarning).
			WithDescription("login rejected by schedule API").
			WithRequest(input.IPAddress, input.UserAgent))
		return session.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Session{}, err
	}

	token, err := deps.GenerateToken()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session token: %w", err)
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	sess := session.New(token, res.User.Email, res.User.Name, res.User.Role, res.RefreshToken, deps.Now(), ttl)
	if err := deps.Sessions.Save(ctx, sess); err != nil {
		return session.Session{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", sess.Email, "role", sess.Role)
	recordAudit(ctx, deps.Audit, audit.NewEvent(sess.Email, sess.Role, audit.CategorySecurity, audit.ActionLogin, deps.Now()).
		WithRequest(input.IPAddress, input.UserAgent))
	return sess, nil
}

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Session   session.Session
	IPAddress string
	UserAgent string
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	API      AuthAPI
	Sessions SessionStoreForAuth
	Audit    AuditRecorder
	Now      func() time.Time
}

// ExecuteLogout revokes the refresh credential and removes the local session.
// PRE: input.Session.Token is non-empty
// POST: The local session is gone even when the API revoke fails
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) error {
	if err := deps.API.Logout(ctx, input.Session.RefreshToken); err != nil {
		slog.Warn("auth_event", "event", "logout_revoke_failed", "email", input.Session.Email, "error", err)
	}
	if err := deps.Sessions.Delete(ctx, input.Session.Token); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout", "email", input.Session.Email)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Session.Email, input.Session.Role, audit.CategorySecurity, audit.ActionLogout, deps.Now()).
		WithRequest(input.IPAddress, input.UserAgent))
	return nil
}

// recordAudit saves an event; the audit trail never blocks the operation it describes.
func recordAudit(ctx context.Context, rec AuditRecorder, event audit.Event) {
	if rec == nil {
		return
	}
	if err := rec.Save(ctx, event); err != nil {
		slog.Error("audit_event", "event", "record_failed", "category", event.Category, "action", event.Action, "error", err)
	}
}
