package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"confsched/internal/adapters/api"
	"confsched/internal/adapters/email"
	"confsched/internal/adapters/http/middleware"
	"confsched/internal/adapters/http/perf"
	auditStore "confsched/internal/adapters/storage/audit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the HTTP layer talks to.
type Deps struct {
	API        *api.Client
	AuditStore auditStore.Store
	// SessionBackend persists staff sessions; nil keeps them in memory.
	SessionBackend middleware.SessionBackend
	Notifier       *email.Notifier
	DB             Pinger // optional, reported by /health
	Location       *time.Location
	Version        string
}

// Options holds request-protection settings.
type Options struct {
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      float64
	SessionTTL         time.Duration
}

// Global dependencies (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// secureCookies mirrors Options.SecureCookies for cookie writers.
var secureCookies bool

// sessionTTL is the lifetime of sessions opened by /login.
var sessionTTL time.Duration

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app.
// PRE: d.API and d.AuditStore are set; opts.CSRFKey is 32 bytes
// POST: Returns the full handler chain; package globals point at d
func NewMux(d *Deps, opts Options, collector *perf.Collector) http.Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	deps = d
	perfCollector = collector
	sessions = middleware.NewSessionStore(d.SessionBackend)
	secureCookies = opts.SecureCookies
	sessionTTL = opts.SessionTTL

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Outer to inner: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> MethodOverride -> mux
	return middleware.Chain(mux,
		middleware.MethodOverride,
		middleware.SecurityHeaders,
		middleware.CSRF(middleware.CSRFOptions{
			Key:            opts.CSRFKey,
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	)
}

// registerRoutes binds every route. Admin routes require a staff session.
func registerRoutes(mux *http.ServeMux) {
	staff := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	// Public
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/schedule", http.StatusFound)
	})
	mux.HandleFunc("GET /schedule", handlePublicSchedule)
	mux.HandleFunc("GET /api/schedule", handlePublicScheduleJSON)
	mux.HandleFunc("GET /schedule.ics", handleScheduleICS)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /login", handleLoginForm)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)

	// Admin pages
	mux.Handle("GET /admin/conferences", staff(handleAdminConferences))
	mux.Handle("GET /admin/conferences/{id}", staff(handleAdminConference))
	mux.Handle("GET /admin/audit-trail", staff(handleAdminAuditTrail))
	mux.Handle("GET /admin/audit-trail/{id}", staff(handleAdminAuditEvent))
	mux.Handle("GET /admin/perf", staff(handleAdminPerf))

	// Admin JSON and form mutations
	mux.Handle("GET /api/admin/conferences/{id}/board", staff(handleAdminBoardJSON))
	mux.Handle("POST /api/admin/{resource}", staff(handleCreate))
	mux.Handle("PUT /api/admin/{resource}/{id}", staff(handleUpdate))
	mux.Handle("DELETE /api/admin/{resource}/{id}", staff(handleDelete))
}
