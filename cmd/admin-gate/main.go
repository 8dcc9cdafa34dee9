// Package main provides the entry point for the admin gate server and its operator commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	"github.com/sipico/admin-gate/internal/admin"
	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/config"
	"github.com/sipico/admin-gate/internal/directory"
	"github.com/sipico/admin-gate/internal/metrics"
	"github.com/sipico/admin-gate/internal/middleware"
	"github.com/sipico/admin-gate/internal/notify"
	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/session"
	"github.com/sipico/admin-gate/internal/storage"
)

const version = "0.1.0"

// serverShutdownTimeout bounds graceful shutdown of the listeners.
const serverShutdownTimeout = 30 * time.Second

// defaultHealthCheckPort is probed when LISTEN_ADDR carries no usable port.
const defaultHealthCheckPort = "8080"

func main() {
	os.Exit(run(os.Args, os.Stdout))
}

// run parses the command line and dispatches to a command. It returns the exit code.
func run(args []string, stdout io.Writer) int {
	if len(args) == 1 {
		args = append(args, "serve")
	}

	parser := argparse.NewParser("admin-gate", "Scoped admin sessions with password and passcode verification")

	serveCmd := parser.NewCommand("serve", "Run the HTTP server (default)")
	healthCmd := parser.NewCommand("healthcheck", "Probe the local /health endpoint and exit 0 when healthy")

	dirCmd := parser.NewCommand("directory", "Manage the database-backed admin directory")
	addCmd := dirCmd.NewCommand("add", "Grant a scope to an email")
	addScope := addCmd.Selector("s", "scope", scope.Names(), &argparse.Options{Required: true, Help: "Scope to grant"})
	addEmail := addCmd.String("e", "email", &argparse.Options{Required: true, Help: "Email address"})
	removeCmd := dirCmd.NewCommand("remove", "Revoke a scope from an email")
	removeScope := removeCmd.Selector("s", "scope", scope.Names(), &argparse.Options{Required: true, Help: "Scope to revoke"})
	removeEmail := removeCmd.String("e", "email", &argparse.Options{Required: true, Help: "Email address"})
	listCmd := dirCmd.NewCommand("list", "List every directory entry of the configured source")

	hashCmd := parser.NewCommand("hash-password", "Print a bcrypt hash for ADMIN_PASSWORD_HASH")
	hashPlain := hashCmd.String("p", "password", &argparse.Options{Required: true, Help: "Password to hash"})

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stdout, parser.Usage(err))
		return 2
	}

	switch {
	case serveCmd.Happened():
		return runServe()
	case healthCmd.Happened():
		return runHealthCheck()
	case hashCmd.Happened():
		return runHashPassword(stdout, *hashPlain)
	case addCmd.Happened():
		return runDirectory(stdout, func(ctx context.Context, s *storage.SQLiteStorage) error {
			return addDirectoryEntry(ctx, s, stdout, *addScope, *addEmail)
		})
	case removeCmd.Happened():
		return runDirectory(stdout, func(ctx context.Context, s *storage.SQLiteStorage) error {
			return removeDirectoryEntry(ctx, s, stdout, *removeScope, *removeEmail)
		})
	case listCmd.Happened():
		return runDirectoryList(stdout)
	}

	fmt.Fprint(stdout, parser.Usage(nil))
	return 2
}

// components holds everything the serve command wires together.
type components struct {
	logger        *slog.Logger
	logLevel      *slog.LevelVar
	store         *storage.SQLiteStorage
	issuer        *session.Issuer
	guard         *auth.Guard
	limiter       *middleware.RateLimiter
	registry      *prometheus.Registry
	adminRouter   http.Handler
	metricsRouter http.Handler
}

// initializeComponents builds the logger, storage, directory, issuer, guard and routers from cfg.
// The caller owns the returned store and limiter and must close them.
func initializeComponents(cfg *config.Config) (*components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	password, err := passwordVerifier(cfg)
	if err != nil {
		return nil, err
	}
	if !password.Configured() {
		logger.Warn("no admin password configured, password login is disabled")
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var dir directory.Directory
	switch cfg.DirectorySource {
	case config.DirectorySourceDatabase:
		dir = directory.NewStore(store, cfg.StoreTimeout)
	default:
		dir = directory.NewStatic(cfg.DirectoryLists())
	}
	aggregator := directory.NewAggregator(dir)

	var notifier session.Notifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhook(cfg.NotifyWebhookURL, cfg.NotifyTimeout, logger)
	} else {
		logger.Warn("NOTIFY_WEBHOOK_URL not set, passcodes are written to the log only")
		notifier = notify.NewLog(logger, cfg.LogPasscodes)
	}

	issuer := session.NewIssuer(session.Config{
		Store:     store,
		Directory: dir,
		Password:  password,
		Notifier:  notifier,
		Timeout:   cfg.StoreTimeout,
		Logger:    logger,
	})

	var strategies []auth.Authenticator
	if cfg.SSOSecret != "" {
		strategies = append(strategies, auth.NewSSOAuthenticator([]byte(cfg.SSOSecret), aggregator, logger))
	}
	strategies = append(strategies, auth.NewTokenAuthenticator(store, aggregator, cfg.StoreTimeout, logger))
	guard := auth.NewGuard(cfg.SSOCookieName, strategies...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Version = version
	if err := metrics.Init(registry); err != nil {
		_ = store.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.IssueRatePerMinute, cfg.IssueRateBurst), logger)

	handler := admin.NewHandler(issuer, guard, store, logLevel, logger)
	handler.SetLifetimes(cfg.SessionTTLHours, cfg.PasscodeTTL)
	handler.SetRateLimiter(limiter)

	metricsRouter := http.NewServeMux()
	metricsRouter.Handle("/metrics", metrics.HandlerFor(registry))

	return &components{
		logger:        logger,
		logLevel:      logLevel,
		store:         store,
		issuer:        issuer,
		guard:         guard,
		limiter:       limiter,
		registry:      registry,
		adminRouter:   handler.NewRouter(),
		metricsRouter: metricsRouter,
	}, nil
}

func passwordVerifier(cfg *config.Config) (*auth.PasswordVerifier, error) {
	if cfg.AdminPasswordHash != "" {
		return auth.NewPasswordVerifierFromHash(cfg.AdminPasswordHash)
	}
	return auth.NewPasswordVerifier(cfg.AdminPassword)
}

func runServe() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	c, err := initializeComponents(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer c.limiter.Stop()
	defer func() {
		if err := c.store.Close(); err != nil {
			c.logger.Error("failed to close storage", "error", err)
		}
	}()

	c.logger.Info("admin gate starting",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsListenAddr,
		"directory", cfg.DirectorySource,
		"sso", cfg.SSOSecret != "",
	)

	servers := []*http.Server{createServer(cfg.ListenAddr, c.adminRouter)}
	if cfg.MetricsListenAddr != "" {
		servers = append(servers, createServer(cfg.MetricsListenAddr, c.metricsRouter))
	}

	if err := startServerAndWaitForShutdown(c.logger, servers...); err != nil {
		c.logger.Error("server error", "error", err)
		return 1
	}
	return 0
}

// createServer returns an http.Server with the standard timeouts.
func createServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// startServerAndWaitForShutdown serves until SIGINT/SIGTERM or a listener fails,
// then shuts every server down within serverShutdownTimeout.
func startServerAndWaitForShutdown(logger *slog.Logger, servers ...*http.Server) error {
	serverErr := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("%s: %w", srv.Addr, err)
			}
		}(srv)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	case runErr = <-serverErr:
		logger.Error("Server failed, shutting down", "error", runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown %s: %w", srv.Addr, err)
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("Server shut down gracefully")
	return nil
}

// runHealthCheck probes the local server. Used as the container HEALTHCHECK.
func runHealthCheck() int {
	listenAddr := ""
	if cfg, err := config.Load(); err == nil {
		listenAddr = cfg.ListenAddr
	}
	return doHealthCheck(healthCheckURL(listenAddr))
}

// healthCheckURL returns the local /health URL for the port in listenAddr.
func healthCheckURL(listenAddr string) string {
	port := defaultHealthCheckPort
	if _, p, err := net.SplitHostPort(listenAddr); err == nil && p != "" {
		port = p
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// doHealthCheck returns 0 when url answers 200 and 1 otherwise.
func doHealthCheck(url string) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url) //nolint:noctx
	if err != nil {
		return 1
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func runHashPassword(stdout io.Writer, plain string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(stdout, "failed to hash password: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(hash))
	return 0
}

// runDirectory opens the configured database and runs fn against it.
func runDirectory(stdout io.Writer, fn func(ctx context.Context, s *storage.SQLiteStorage) error) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdout, "failed to load configuration: %v\n", err)
		return 1
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(stdout, "failed to open storage: %v\n", err)
		return 1
	}
	defer store.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	if err := fn(ctx, store); err != nil {
		fmt.Fprintf(stdout, "%v\n", err)
		return 1
	}
	if cfg.DirectorySource != config.DirectorySourceDatabase {
		fmt.Fprintf(stdout, "note: DIRECTORY_SOURCE=%s, the server ignores database entries\n", cfg.DirectorySource)
	}
	return 0
}

func addDirectoryEntry(ctx context.Context, store storage.DirectoryStore, stdout io.Writer, rawScope, rawEmail string) error {
	s, email, err := directoryArgs(rawScope, rawEmail)
	if err != nil {
		return err
	}
	if err := store.AddDirectoryEntry(ctx, s.String(), email); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("%s already holds %s", email, s)
		}
		return fmt.Errorf("failed to add entry: %w", err)
	}
	fmt.Fprintf(stdout, "granted %s to %s\n", s, email)
	return nil
}

func removeDirectoryEntry(ctx context.Context, store storage.DirectoryStore, stdout io.Writer, rawScope, rawEmail string) error {
	s, email, err := directoryArgs(rawScope, rawEmail)
	if err != nil {
		return err
	}
	if err := store.RemoveDirectoryEntry(ctx, s.String(), email); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s does not hold %s", email, s)
		}
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	fmt.Fprintf(stdout, "revoked %s from %s\n", s, email)
	return nil
}

func listDirectoryEntries(ctx context.Context, store storage.DirectoryStore, stdout io.Writer) error {
	entries, err := store.ListDirectoryEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%-12s %s\n", e.Scope, e.Email)
	}
	return nil
}

// runDirectoryList prints the directory the server would use: the environment
// lists for DIRECTORY_SOURCE=env, the database entries otherwise.
func runDirectoryList(stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdout, "failed to load configuration: %v\n", err)
		return 1
	}
	if cfg.DirectorySource == config.DirectorySourceDatabase {
		return runDirectory(stdout, func(ctx context.Context, s *storage.SQLiteStorage) error {
			return listDirectoryEntries(ctx, s, stdout)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	if err := listStaticEntries(ctx, directory.NewStatic(cfg.DirectoryLists()), stdout); err != nil {
		fmt.Fprintf(stdout, "%v\n", err)
		return 1
	}
	return 0
}

func listStaticEntries(ctx context.Context, dir directory.Directory, stdout io.Writer) error {
	for _, s := range scope.All {
		set, err := dir.Emails(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", s, err)
		}
		for _, email := range set.Sorted() {
			fmt.Fprintf(stdout, "%-12s %s\n", s, email)
		}
	}
	return nil
}

func directoryArgs(rawScope, rawEmail string) (scope.Scope, string, error) {
	s := scope.Normalize(rawScope)
	if s == scope.Any {
		return "", "", fmt.Errorf("scope %q cannot be stored, use one of %v", rawScope, scope.Names())
	}
	email := directory.NormalizeEmail(rawEmail)
	if email == "" {
		return "", "", errors.New("email is required")
	}
	return s, email, nil
}
