package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// User is the staff identity the API returns on login.
type User struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

type userDTO struct {
	ID    flexInt `json:"id"`
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Role  string  `json:"role"`
}

// LoginResult carries the credentials issued by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         User
}

type loginData struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	User         userDTO `json:"user"`
}

// Login exchanges staff credentials for an access token and a refresh credential.
// The refresh credential is read from the refresh cookie, falling back to the payload.
// PRE: email and password are non-empty
// POST: returns a LoginResult with a non-empty RefreshToken, or ErrUnauthorized
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	var data loginData
	if err := decodeData(resp, &data); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	refresh := data.RefreshToken
	for _, ck := range resp.cookies {
		if ck.Name == c.refreshCookie && ck.Value != "" {
			refresh = ck.Value
		}
	}
	if refresh == "" {
		return LoginResult{}, fmt.Errorf("login: no refresh credential issued: %w", ErrUnauthorized)
	}
	user := User{ID: int64(data.User.ID), Email: data.User.Email, Name: data.User.Name, Role: data.User.Role}
	if user.Email == "" {
		user.Email = email
	}
	return LoginResult{AccessToken: data.AccessToken, RefreshToken: refresh, User: user}, nil
}

// Refresh trades the refresh credential for a short-lived access token.
// PRE: none
// POST: an empty refresh credential returns ErrUnauthorized without any network call
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("refresh: missing refresh credential: %w", ErrUnauthorized)
	}
	resp, err := c.send(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/refresh",
		cookies: []*http.Cookie{{Name: c.refreshCookie, Value: refreshToken}},
	})
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeData(resp, &data); err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("refresh: empty access token: %w", ErrUnauthorized)
	}
	return data.AccessToken, nil
}

// Logout revokes the refresh credential. Callers treat failures as best-effort.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := c.send(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/logout",
		cookies: []*http.Cookie{{Name: c.refreshCookie, Value: refreshToken}},
	})
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// TokenSource yields an access token for one authorized call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RefreshTokenSource refreshes before every call. There is no caching and no retry:
// a failed refresh fails the dependent call.
type RefreshTokenSource struct {
	client  *Client
	refresh string
}

// TokenSource returns a RefreshTokenSource bound to a staff member's refresh credential.
func (c *Client) TokenSource(refreshToken string) *RefreshTokenSource {
	return &RefreshTokenSource{client: c, refresh: refreshToken}
}

// Token implements TokenSource.
func (s *RefreshTokenSource) Token(ctx context.Context) (string, error) {
	return s.client.Refresh(ctx, s.refresh)
}

// bearer resolves ts into a token; a nil source means an anonymous call.
func bearer(ctx context.Context, ts TokenSource) (string, error) {
	if ts == nil {
		return "", nil
	}
	return ts.Token(ctx)
}
