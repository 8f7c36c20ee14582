package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// APIConfig points the service at the remote schedule API.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.org/v1".
	BaseURL string `yaml:"base_url"`
	// Timeout bounds every outgoing request.
	Timeout time.Duration `yaml:"timeout"`
	// RefreshCookie is the cookie name the API uses for the refresh credential.
	RefreshCookie string `yaml:"refresh_cookie"`
}

// DatabaseConfig locates the local SQLite file (audit trail and staff sessions).
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SecurityConfig holds secrets and request-protection knobs.
type SecurityConfig struct {
	// CSRFKey is 64 hex characters (32 bytes).
	CSRFKey string `yaml:"csrf_key"`
	// SessionKey seals refresh credentials at rest; 64 hex characters.
	SessionKey     string   `yaml:"session_key"`
	TrustedOrigins []string `yaml:"trusted_origins"`
	// RateLimitPerSecond is the per-IP request budget.
	RateLimitPerSecond int  `yaml:"rate_limit_per_second"`
	SecureCookies      bool `yaml:"secure_cookies"`
	// SessionTTL is how long a staff login lasts, e.g. "24h".
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// NotifyConfig controls schedule-change emails. An empty ResendAPIKey disables delivery.
type NotifyConfig struct {
	ResendAPIKey string   `yaml:"resend_api_key"`
	From         string   `yaml:"from"`
	ReplyTo      string   `yaml:"reply_to"`
	Recipients   []string `yaml:"recipients"`
}

// AuditConfig controls retention of the local audit trail.
type AuditConfig struct {
	RetentionDays int `yaml:"retention_days"`
	// PruneCron is a standard five-field cron expression.
	PruneCron string `yaml:"prune_cron"`
}

// PerfConfig sets the slow-operation warning thresholds in milliseconds.
type PerfConfig struct {
	SlowRequestMs  int `yaml:"slow_request_ms"`
	SlowQueryMs    int `yaml:"slow_query_ms"`
	SlowUpstreamMs int `yaml:"slow_upstream_ms"`
}

// LogConfig selects the slog level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen string `yaml:"listen"`
	Env    string `yaml:"env"`
	// TimeZone is the IANA zone the conference runs in; schedule times are local to it.
	TimeZone string         `yaml:"time_zone"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	Notify   NotifyConfig   `yaml:"notify"`
	Audit    AuditConfig    `yaml:"audit"`
	Perf     PerfConfig     `yaml:"perf"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults so partially written files still work.
// PRE: none
// POST: every field needed at startup has a usable value
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.TimeZone == "" {
		c.TimeZone = "Asia/Jakarta"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000/api"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.RefreshCookie == "" {
		c.API.RefreshCookie = "refresh_token"
	}
	if c.Database.Path == "" {
		c.Database.Path = "confsched.db"
	}
	if c.Security.TrustedOrigins == nil {
		c.Security.TrustedOrigins = []string{"localhost:8080", "127.0.0.1:8080"}
	}
	if c.Security.SessionTTL <= 0 {
		c.Security.SessionTTL = 24 * time.Hour
	}
	if c.Security.RateLimitPerSecond <= 0 {
		c.Security.RateLimitPerSecond = 10
	}
	if c.Notify.From == "" {
		c.Notify.From = "Conference Schedule <noreply@example.org>"
	}
	if c.Notify.Recipients == nil {
		c.Notify.Recipients = []string{}
	}
	if c.Audit.RetentionDays <= 0 {
		c.Audit.RetentionDays = 180
	}
	if c.Audit.PruneCron == "" {
		c.Audit.PruneCron = "0 3 * * *"
	}
	if c.Perf.SlowRequestMs <= 0 {
		c.Perf.SlowRequestMs = 200
	}
	if c.Perf.SlowQueryMs <= 0 {
		c.Perf.SlowQueryMs = 50
	}
	if c.Perf.SlowUpstreamMs <= 0 {
		c.Perf.SlowUpstreamMs = 1000
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		c.Log.Level = "info"
	}
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location returns the conference time zone, falling back to UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps Log.Level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks values Normalize cannot repair.
// PRE: Normalize has run
// POST: returns nil if the config is usable in its environment
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time_zone: %w", err)
	}
	if c.IsProduction() {
		if c.Security.CSRFKey == "" {
			return errors.New("security.csrf_key is required in production")
		}
		if c.Security.SessionKey == "" {
			return errors.New("security.session_key is required in production")
		}
	}
	for name, v := range map[string]string{"security.csrf_key": c.Security.CSRFKey, "security.session_key": c.Security.SessionKey} {
		if v == "" {
			continue
		}
		if _, err := DecodeKey(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// DecodeKey parses a 64 hex character secret into 32 bytes.
func DecodeKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 32 {
		return nil, errors.New("must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// ApplyEnv overrides file values with CONFSCHED_* environment variables.
// getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("CONFSCHED_LISTEN", &c.Listen)
	str("CONFSCHED_ENV", &c.Env)
	str("CONFSCHED_TIME_ZONE", &c.TimeZone)
	str("CONFSCHED_API_BASE_URL", &c.API.BaseURL)
	str("CONFSCHED_API_REFRESH_COOKIE", &c.API.RefreshCookie)
	str("CONFSCHED_DB", &c.Database.Path)
	str("CONFSCHED_CSRF_KEY", &c.Security.CSRFKey)
	str("CONFSCHED_SESSION_KEY", &c.Security.SessionKey)
	str("CONFSCHED_RESEND_API_KEY", &c.Notify.ResendAPIKey)
	str("CONFSCHED_NOTIFY_FROM", &c.Notify.From)
	str("CONFSCHED_NOTIFY_REPLY_TO", &c.Notify.ReplyTo)
	str("CONFSCHED_LOG_LEVEL", &c.Log.Level)

	if v := getenv("CONFSCHED_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}
	if v := getenv("CONFSCHED_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Security.SessionTTL = d
		}
	}
	if v := getenv("CONFSCHED_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Security.RateLimitPerSecond = n
		}
	}
	if v := getenv("CONFSCHED_NOTIFY_RECIPIENTS"); v != "" {
		var list []string
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				list = append(list, addr)
			}
		}
		c.Notify.Recipients = list
	}
	c.Normalize()
}

// Load reads configuration from the YAML file at path.
//
// A missing file is created with defaults (0600) and the defaults are returned.
// An existing file is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".confsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
