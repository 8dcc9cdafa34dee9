// Package config provides configuration loading and validation from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sipico/admin-gate/internal/directory"
	"github.com/sipico/admin-gate/internal/scope"
)

// Directory sources.
const (
	DirectorySourceEnv      = "env"
	DirectorySourceDatabase = "database"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path

	AdminPassword     string // Optional: shared admin password in plain text
	AdminPasswordHash string // Optional: bcrypt hash of the shared admin password

	DirectorySource   string // env or database
	AdminEmails       string // comma, semicolon or whitespace separated
	ApprovalEmails    string
	UpdateEmails      string
	CoordinatorEmails string

	SessionTTLHours int
	PasscodeTTL     time.Duration
	StoreTimeout    time.Duration

	SSOSecret     string // Optional: HS256 secret for the SSO cookie; empty disables SSO
	SSOCookieName string

	NotifyWebhookURL string // Optional: passcode delivery webhook; empty logs passcodes instead
	NotifyTimeout    time.Duration
	LogPasscodes     bool // Development only: write plaintext passcodes to the log

	IssueRatePerMinute int
	IssueRateBurst     int
}

// Load parses configuration from environment variables.
// All configuration options have sensible defaults for ease of deployment.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          getenv("LOG_LEVEL", "info"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		MetricsListenAddr: getenv("METRICS_LISTEN_ADDR", "localhost:9090"),
		DatabasePath:      getenv("DATABASE_PATH", "/data/admin-gate.db"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		DirectorySource:   strings.ToLower(getenv("DIRECTORY_SOURCE", DirectorySourceEnv)),
		AdminEmails:       os.Getenv("ADMIN_EMAILS"),
		ApprovalEmails:    os.Getenv("APPROVAL_ADMIN_EMAILS"),
		UpdateEmails:      os.Getenv("UPDATE_ADMIN_EMAILS"),
		CoordinatorEmails: os.Getenv("COORDINATOR_EMAILS"),
		SSOSecret:         os.Getenv("SSO_JWT_SECRET"),
		SSOCookieName:     getenv("SSO_COOKIE_NAME", "sso_session"),
		NotifyWebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
	}

	var errs []error
	cfg.SessionTTLHours = parseInt("SESSION_TTL_HOURS", 12, &errs)
	cfg.PasscodeTTL = time.Duration(parseInt("PASSCODE_TTL_MINUTES", 10, &errs)) * time.Minute
	cfg.StoreTimeout = parseDuration("STORE_TIMEOUT", 5*time.Second, &errs)
	cfg.NotifyTimeout = parseDuration("NOTIFY_TIMEOUT", 10*time.Second, &errs)
	cfg.LogPasscodes = parseBool("PASSCODE_LOG_CODES", false, &errs)
	cfg.IssueRatePerMinute = parseInt("ISSUE_RATE_PER_MINUTE", 10, &errs)
	cfg.IssueRateBurst = parseInt("ISSUE_RATE_BURST", 5, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.DirectorySource {
	case DirectorySourceEnv, DirectorySourceDatabase:
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_SOURCE must be %q or %q, got %q",
			DirectorySourceEnv, DirectorySourceDatabase, c.DirectorySource))
	}
	if c.AdminPassword != "" && c.AdminPasswordHash != "" {
		errs = append(errs, errors.New("set only one of ADMIN_PASSWORD and ADMIN_PASSWORD_HASH"))
	}
	if c.SessionTTLHours <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_HOURS must be positive"))
	}
	if c.PasscodeTTL <= 0 {
		errs = append(errs, errors.New("PASSCODE_TTL_MINUTES must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.NotifyWebhookURL != "" {
		u, err := url.Parse(c.NotifyWebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL must be an absolute http(s) URL"))
		}
	}
	if c.IssueRatePerMinute <= 0 || c.IssueRateBurst <= 0 {
		errs = append(errs, errors.New("ISSUE_RATE_PER_MINUTE and ISSUE_RATE_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// DirectoryLists returns the per-scope email lists configured in the environment.
func (c *Config) DirectoryLists() map[scope.Scope][]string {
	return map[scope.Scope][]string{
		scope.Admin:       directory.ParseList(c.AdminEmails),
		scope.Approvals:   directory.ParseList(c.ApprovalEmails),
		scope.Updates:     directory.ParseList(c.UpdateEmails),
		scope.Coordinator: directory.ParseList(c.CoordinatorEmails),
	}
}

// ParseLogLevel converts a LOG_LEVEL value into a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", level)
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return n
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return d
}

func parseBool(key string, fallback bool, errs *[]error) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return fallback
	}
	return b
}
