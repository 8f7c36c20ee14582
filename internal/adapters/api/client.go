// Package api is the client for the remote schedule REST API.
//
// Every endpoint answers with the same envelope (code, status, message,
// pagination, data, errors). A non-2xx status or an envelope code >= 400 is
// a failure and surfaces the envelope message as an *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnauthorized covers 401/403 answers and a missing refresh credential.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound covers 404 answers.
	ErrNotFound = errors.New("api: not found")
)

// Error is a failed API answer.
type Error struct {
	StatusCode int             // HTTP status
	Code       int             // envelope code, 0 when the body was not an envelope
	Message    string          // envelope message or HTTP status text
	Details    json.RawMessage // envelope errors payload, if any
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.status(), e.Message)
}

// Unwrap maps auth and not-found failures onto the sentinel errors.
func (e *Error) Unwrap() error {
	switch e.status() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

func (e *Error) status() int {
	if e.Code >= 400 {
		return e.Code
	}
	return e.StatusCode
}

// Pagination is the optional paging block of the envelope.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type envelope struct {
	Code       int             `json:"code"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors,omitempty"`
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each request; zero means 30s.
	Timeout time.Duration
	// RefreshCookie is the cookie carrying the refresh credential; empty means "refresh_token".
	RefreshCookie string
	// Transport overrides http.DefaultTransport (timing, tests).
	Transport http.RoundTripper
}

// Client talks to the remote schedule API. It holds no per-user state and is
// safe for concurrent use.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	refreshCookie string
}

// NewClient creates a Client.
// PRE: opts.BaseURL is an absolute http(s) URL
// POST: returns a ready client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RefreshCookie == "" {
		opts.RefreshCookie = "refresh_token"
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		refreshCookie: opts.RefreshCookie,
	}
}

// request describes one API call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	token   string
	cookies []*http.Cookie
}

// response is a successful, decoded envelope.
type response struct {
	data       json.RawMessage
	pagination *Pagination
	cookies    []*http.Cookie
}

// send performs the call and decodes the envelope.
// PRE: req.method and req.path are set
// POST: returns the envelope payload, or an error classified per the envelope rules
func (c *Client) send(ctx context.Context, req request) (response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return response{}, fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, ck := range req.cookies {
		httpReq.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return response{}, fmt.Errorf("read %s %s: %w", req.method, req.path, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if len(bytes.TrimSpace(raw)) == 0 {
		if !ok {
			return response{}, &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return response{cookies: resp.Cookies()}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return response{}, &Error{StatusCode: resp.StatusCode, Message: snippet(raw)}
		}
		return response{}, fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	if !ok || env.Code >= 400 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(max(env.Code, resp.StatusCode))
		}
		return response{}, &Error{StatusCode: resp.StatusCode, Code: env.Code, Message: msg, Details: env.Errors}
	}
	return response{data: env.Data, pagination: env.Pagination, cookies: resp.Cookies()}, nil
}

// decodeData unmarshals the envelope payload into out; an absent payload leaves out untouched.
func decodeData(resp response, out any) error {
	if len(resp.data) == 0 || string(resp.data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
