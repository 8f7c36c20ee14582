package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	_ "modernc.org/sqlite"

	"confsched/internal/adapters/api"
	emailPkg "confsched/internal/adapters/email"
	web "confsched/internal/adapters/http"
	"confsched/internal/adapters/http/perf"
	"confsched/internal/adapters/storage"
	auditStorePkg "confsched/internal/adapters/storage/audit"
	sessionStorePkg "confsched/internal/adapters/storage/session"
	"confsched/internal/application/orchestrators"
	"confsched/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := pflag.String("config", "confsched.yaml", "path to the YAML config file (created with defaults if missing)")
	listen := pflag.String("listen", "", "listen address, overrides the config file")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if *listen != "" {
		cfg.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	dsn := cfg.Database.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)
	timedDB.SetSlowThreshold(float64(cfg.Perf.SlowQueryMs))

	client := api.NewClient(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RefreshCookie: cfg.API.RefreshCookie,
		Transport: &api.TimedTransport{
			Collector:   collector,
			ThresholdMs: float64(cfg.Perf.SlowUpstreamMs),
		},
	})

	sessionKey := secretOrRandom(cfg.Security.SessionKey, "session_key")
	var sealKey [32]byte
	copy(sealKey[:], sessionKey)
	sessionStore := sessionStorePkg.NewSQLiteStore(timedDB, sealKey)
	auditStore := auditStorePkg.NewSQLiteStore(timedDB)

	var sender emailPkg.Sender
	if cfg.Notify.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.Notify.ResendAPIKey, cfg.Notify.From)
		slog.Info("startup_event", "event", "email_configured", "sender", "resend", "recipients", len(cfg.Notify.Recipients))
	} else {
		sender = emailPkg.NewLogSender()
		if cfg.IsProduction() {
			slog.Warn("startup_event", "event", "email_disabled", "reason", "CONFSCHED_RESEND_API_KEY is not set")
		}
	}
	notifier := emailPkg.NewNotifier(sender, cfg.Notify.From, cfg.Notify.ReplyTo, cfg.Notify.Recipients)

	scheduler := cron.New(cron.WithLocation(cfg.Location()))
	_, err = scheduler.AddFunc(cfg.Audit.PruneCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, err := orchestrators.ExecuteRetention(ctx, orchestrators.RetentionInput{
			RetentionDays: cfg.Audit.RetentionDays,
		}, orchestrators.RetentionDeps{
			Audit:    auditStore,
			Sessions: sessionStore,
			Now:      time.Now,
		})
		if err != nil {
			slog.Error("retention_event", "event", "failed", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid audit.prune_cron %q: %v", cfg.Audit.PruneCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := web.NewMux(&web.Deps{
		API:            client,
		AuditStore:     auditStore,
		SessionBackend: sessionStore,
		Notifier:       notifier,
		DB:             timedDB,
		Location:       cfg.Location(),
		Version:        version,
	}, web.Options{
		CSRFKey:            secretOrRandom(cfg.Security.CSRFKey, "csrf_key"),
		SecureCookies:      cfg.Security.SecureCookies,
		TrustedOrigins:     cfg.Security.TrustedOrigins,
		RateLimitPerSecond: cfg.Security.RateLimitPerSecond,
		SlowRequestMs:      float64(cfg.Perf.SlowRequestMs),
		SessionTTL:         cfg.Security.SessionTTL,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("startup_event", "event", "listening", "addr", cfg.Listen, "version", version,
			"env", cfg.Env, "api", cfg.API.BaseURL, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown_event", "event", "draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_event", "event", "forced", "error", err)
	}
}

// secretOrRandom decodes a configured key. Development configs may leave it
// empty, in which case a random key is used and sessions do not survive a restart.
func secretOrRandom(keyHex, name string) []byte {
	if keyHex != "" {
		key, err := config.DecodeKey(keyHex)
		if err != nil {
			log.Fatalf("security.%s: %v", name, err)
		}
		return key
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate %s: %v", name, err)
	}
	slog.Warn("startup_event", "event", "ephemeral_key", "key", name)
	return key
}
