package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sipico/admin-gate/internal/scope"
)

var configKeys = []string{
	"LOG_LEVEL", "LISTEN_ADDR", "METRICS_LISTEN_ADDR", "DATABASE_PATH",
	"ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH", "DIRECTORY_SOURCE",
	"ADMIN_EMAILS", "APPROVAL_ADMIN_EMAILS", "UPDATE_ADMIN_EMAILS", "COORDINATOR_EMAILS",
	"SESSION_TTL_HOURS", "PASSCODE_TTL_MINUTES", "STORE_TIMEOUT",
	"SSO_JWT_SECRET", "SSO_COOKIE_NAME", "NOTIFY_WEBHOOK_URL", "NOTIFY_TIMEOUT",
	"PASSCODE_LOG_CODES", "ISSUE_RATE_PER_MINUTE", "ISSUE_RATE_BURST",
}

// clearEnv blanks every key Load reads. t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q (default)", cfg.LogLevel, "info")
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q (default)", cfg.ListenAddr, ":8080")
	}
	if cfg.MetricsListenAddr != "localhost:9090" {
		t.Errorf("MetricsListenAddr = %q, want %q (default)", cfg.MetricsListenAddr, "localhost:9090")
	}
	if cfg.DatabasePath != "/data/admin-gate.db" {
		t.Errorf("DatabasePath = %q, want %q (default)", cfg.DatabasePath, "/data/admin-gate.db")
	}
	if cfg.DirectorySource != DirectorySourceEnv {
		t.Errorf("DirectorySource = %q, want %q (default)", cfg.DirectorySource, DirectorySourceEnv)
	}
	if cfg.SessionTTLHours != 12 {
		t.Errorf("SessionTTLHours = %d, want 12 (default)", cfg.SessionTTLHours)
	}
	if cfg.PasscodeTTL != 10*time.Minute {
		t.Errorf("PasscodeTTL = %v, want 10m (default)", cfg.PasscodeTTL)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want 5s (default)", cfg.StoreTimeout)
	}
	if cfg.NotifyTimeout != 10*time.Second {
		t.Errorf("NotifyTimeout = %v, want 10s (default)", cfg.NotifyTimeout)
	}
	if cfg.SSOCookieName != "sso_session" {
		t.Errorf("SSOCookieName = %q, want %q (default)", cfg.SSOCookieName, "sso_session")
	}
	if cfg.LogPasscodes {
		t.Error("LogPasscodes = true, want false (default)")
	}
	if cfg.IssueRatePerMinute != 10 || cfg.IssueRateBurst != 5 {
		t.Errorf("issue rate = %d/%d, want 10/5 (default)", cfg.IssueRatePerMinute, cfg.IssueRateBurst)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v, want nil", err)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DATABASE_PATH", "/custom/path.db")
	t.Setenv("DIRECTORY_SOURCE", "Database")
	t.Setenv("SESSION_TTL_HOURS", "72")
	t.Setenv("PASSCODE_TTL_MINUTES", "15")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://mailer.example.org/hooks/passcode")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("PASSCODE_LOG_CODES", "true")
	t.Setenv("ISSUE_RATE_PER_MINUTE", "30")
	t.Setenv("ISSUE_RATE_BURST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9000")
	}
	if cfg.DatabasePath != "/custom/path.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/custom/path.db")
	}
	if cfg.DirectorySource != DirectorySourceDatabase {
		t.Errorf("DirectorySource = %q, want %q", cfg.DirectorySource, DirectorySourceDatabase)
	}
	if cfg.SessionTTLHours != 72 {
		t.Errorf("SessionTTLHours = %d, want 72", cfg.SessionTTLHours)
	}
	if cfg.PasscodeTTL != 15*time.Minute {
		t.Errorf("PasscodeTTL = %v, want 15m", cfg.PasscodeTTL)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("StoreTimeout = %v, want 2s", cfg.StoreTimeout)
	}
	if cfg.NotifyTimeout != 3*time.Second {
		t.Errorf("NotifyTimeout = %v, want 3s", cfg.NotifyTimeout)
	}
	if !cfg.LogPasscodes {
		t.Error("LogPasscodes = false, want true")
	}
	if cfg.IssueRatePerMinute != 30 || cfg.IssueRateBurst != 10 {
		t.Errorf("issue rate = %d/%d, want 30/10", cfg.IssueRatePerMinute, cfg.IssueRateBurst)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"ttl not a number", "SESSION_TTL_HOURS", "twelve"},
		{"passcode ttl not a number", "PASSCODE_TTL_MINUTES", "10m"},
		{"bad store timeout", "STORE_TIMEOUT", "5"},
		{"bad notify timeout", "NOTIFY_TIMEOUT", "soon"},
		{"bad bool", "PASSCODE_LOG_CODES", "maybe"},
		{"bad rate", "ISSUE_RATE_PER_MINUTE", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() error = nil, want error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel:           "info",
			DirectorySource:    DirectorySourceEnv,
			SessionTTLHours:    12,
			PasscodeTTL:        10 * time.Minute,
			StoreTimeout:       5 * time.Second,
			IssueRatePerMinute: 10,
			IssueRateBurst:     5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "LOG_LEVEL"},
		{"bad directory source", func(c *Config) { c.DirectorySource = "ldap" }, "DIRECTORY_SOURCE"},
		{"both passwords", func(c *Config) { c.AdminPassword = "x"; c.AdminPasswordHash = "y" }, "ADMIN_PASSWORD"},
		{"zero session ttl", func(c *Config) { c.SessionTTLHours = 0 }, "SESSION_TTL_HOURS"},
		{"negative passcode ttl", func(c *Config) { c.PasscodeTTL = -time.Minute }, "PASSCODE_TTL_MINUTES"},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }, "STORE_TIMEOUT"},
		{"relative webhook", func(c *Config) { c.NotifyWebhookURL = "/hooks/passcode" }, "NOTIFY_WEBHOOK_URL"},
		{"ftp webhook", func(c *Config) { c.NotifyWebhookURL = "ftp://mailer.example.org" }, "NOTIFY_WEBHOOK_URL"},
		{"zero burst", func(c *Config) { c.IssueRateBurst = 0 }, "ISSUE_RATE_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestDirectoryLists(t *testing.T) {
	c := &Config{
		AdminEmails:       "Root@Example.org",
		ApprovalEmails:    "irb@example.org; root@example.org",
		UpdateEmails:      "editor@example.org editor2@example.org",
		CoordinatorEmails: "",
	}

	lists := c.DirectoryLists()
	if got := lists[scope.Admin]; len(got) != 1 || got[0] != "root@example.org" {
		t.Errorf("admin list = %v, want [root@example.org]", got)
	}
	if got := lists[scope.Approvals]; len(got) != 2 {
		t.Errorf("approvals list = %v, want 2 entries", got)
	}
	if got := lists[scope.Updates]; len(got) != 2 {
		t.Errorf("updates list = %v, want 2 entries", got)
	}
	if got := lists[scope.Coordinator]; len(got) != 0 {
		t.Errorf("coordinator list = %v, want empty", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
