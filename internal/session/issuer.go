// Package session issues and revokes admin bearer sessions.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/directory"
	"github.com/sipico/admin-gate/internal/metrics"
	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/storage"
)

// Store is the subset of storage the Issuer writes to.
type Store interface {
	storage.SessionStore
	storage.PasscodeStore
}

// Notifier delivers a freshly generated passcode out of band.
type Notifier interface {
	SendPasscode(ctx context.Context, msg PasscodeMessage) error
}

// PasscodeMessage is what a Notifier receives for delivery.
type PasscodeMessage struct {
	Email     string
	Code      string
	Scope     scope.Scope
	ExpiresAt time.Time
}

// Request is an issuance attempt. Secret is the password or the passcode.
// TTLHours is the session lifetime chosen by the caller.
type Request struct {
	Email    string
	Secret   string
	Scope    string
	TTLHours int
}

// Result is a newly issued session.
type Result struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	Access    scope.Access
}

// PasscodeResult describes a passcode that was generated and handed to the notifier.
type PasscodeResult struct {
	Email     string
	ExpiresAt time.Time
}

// Issuer is the only component that creates sessions.
type Issuer struct {
	store      Store
	directory  directory.Directory
	aggregator *directory.Aggregator
	password   *auth.PasswordVerifier
	notifier   Notifier
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Config holds the Issuer's collaborators.
type Config struct {
	Store     Store
	Directory directory.Directory
	Password  *auth.PasswordVerifier
	Notifier  Notifier
	// Timeout bounds every store and directory call.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewIssuer creates an Issuer. If Logger is nil, slog.Default() is used.
func NewIssuer(cfg Config) *Issuer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Issuer{
		store:      cfg.Store,
		directory:  cfg.Directory,
		aggregator: directory.NewAggregator(cfg.Directory),
		password:   cfg.Password,
		notifier:   cfg.Notifier,
		timeout:    timeout,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the time source. Intended for tests.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// IssueByPassword verifies the shared admin password and creates a session.
func (i *Issuer) IssueByPassword(ctx context.Context, req Request) (*Result, error) {
	res, err := i.issueByPassword(ctx, req)
	i.recordFailure(err)
	return res, err
}

func (i *Issuer) issueByPassword(ctx context.Context, req Request) (*Result, error) {
	email, s, err := i.authorize(ctx, req.Email, req.Scope)
	if err != nil {
		return nil, err
	}
	if req.Secret == "" {
		return nil, auth.ValidationError("password is required")
	}

	if err := i.password.Verify(req.Secret); err != nil {
		if errors.Is(err, auth.ErrPasswordNotConfigured) {
			i.logger.Warn("password login attempted but no admin password is configured", "email", email, "scope", s)
		} else {
			i.logger.Info("password login rejected", "email", email, "scope", s)
		}
		return nil, auth.CredentialError(err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, i.infrastructure(err)
	}

	now := i.now().UTC()
	sess := &storage.AdminSession{
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl(req.TTLHours)),
	}

	storeCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if err := i.store.CreateSession(storeCtx, token, sess); err != nil {
		return nil, i.infrastructure(err)
	}

	i.logger.Info("admin session issued", "email", email, "scope", s, "method", "password", "expires_at", sess.ExpiresAt)
	metrics.RecordSessionIssued("password")
	return i.result(ctx, token, sess)
}

// RequestPasscode generates a passcode for email, stores its digest and hands the
// plaintext to the notifier. A newer passcode supersedes any earlier one.
func (i *Issuer) RequestPasscode(ctx context.Context, req Request, codeTTL time.Duration) (*PasscodeResult, error) {
	res, err := i.requestPasscode(ctx, req, codeTTL)
	i.recordFailure(err)
	return res, err
}

func (i *Issuer) requestPasscode(ctx context.Context, req Request, codeTTL time.Duration) (*PasscodeResult, error) {
	email, s, err := i.authorize(ctx, req.Email, req.Scope)
	if err != nil {
		return nil, err
	}
	if i.notifier == nil {
		return nil, auth.ConfigurationError("passcode delivery is not configured, contact the administrator", nil)
	}

	code, err := auth.GeneratePasscode()
	if err != nil {
		return nil, i.infrastructure(err)
	}

	now := i.now().UTC()
	p := &storage.Passcode{
		Email:     email,
		CodeHash:  auth.HashPasscode(code),
		CreatedAt: now,
		ExpiresAt: now.Add(codeTTL),
	}

	storeCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if err := i.store.CreatePasscode(storeCtx, p); err != nil {
		return nil, i.infrastructure(err)
	}

	if err := i.notifier.SendPasscode(ctx, PasscodeMessage{Email: email, Code: code, Scope: s, ExpiresAt: p.ExpiresAt}); err != nil {
		i.logger.Error("passcode delivery failed", "email", email, "error", err)
		i.discardPasscode(ctx, p)
		return nil, auth.InfrastructureError(err)
	}

	i.logger.Info("passcode issued", "email", email, "scope", s, "expires_at", p.ExpiresAt)
	return &PasscodeResult{Email: email, ExpiresAt: p.ExpiresAt}, nil
}

// IssueByPasscode redeems the latest passcode for the email and creates a session.
// Each call claims one of the passcode's attempts before the code is compared.
// The passcode is marked used and the session inserted atomically, so concurrent
// redemptions of one code create at most one session.
func (i *Issuer) IssueByPasscode(ctx context.Context, req Request) (*Result, error) {
	res, err := i.issueByPasscode(ctx, req)
	i.recordFailure(err)
	return res, err
}

func (i *Issuer) issueByPasscode(ctx context.Context, req Request) (*Result, error) {
	email, s, err := i.authorize(ctx, req.Email, req.Scope)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Secret)
	if code == "" {
		return nil, auth.ValidationError("code is required")
	}

	storeCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	now := i.now().UTC()

	p, err := i.store.LatestPasscode(storeCtx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, i.rejectPasscode(email, s, "no passcode issued", err)
	}
	if err != nil {
		return nil, i.infrastructure(err)
	}
	if !p.Redeemable(now) {
		return nil, i.rejectPasscode(email, s, "passcode used, expired or out of attempts", storage.ErrPasscodeConsumed)
	}
	if err := i.store.ClaimPasscodeAttempt(storeCtx, p.ID); err != nil {
		if errors.Is(err, storage.ErrPasscodeConsumed) {
			return nil, i.rejectPasscode(email, s, "passcode out of attempts", err)
		}
		return nil, i.infrastructure(err)
	}
	if !auth.PasscodeMatches(code, p.CodeHash) {
		return nil, i.rejectPasscode(email, s, "passcode mismatch", nil)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, i.infrastructure(err)
	}

	codeExpiresAt := p.ExpiresAt
	sess := &storage.AdminSession{
		Email:         email,
		CodeHash:      p.CodeHash,
		CodeExpiresAt: &codeExpiresAt,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl(req.TTLHours)),
	}

	if err := i.store.RedeemPasscode(storeCtx, p.ID, token, sess); err != nil {
		if errors.Is(err, storage.ErrPasscodeConsumed) {
			return nil, i.rejectPasscode(email, s, "passcode redeemed concurrently", err)
		}
		metrics.RecordPasscodeRedemption("error")
		return nil, i.infrastructure(err)
	}

	i.logger.Info("admin session issued", "email", email, "scope", s, "method", "passcode", "expires_at", sess.ExpiresAt)
	metrics.RecordPasscodeRedemption("redeemed")
	metrics.RecordSessionIssued("passcode")
	return i.result(ctx, token, sess)
}

// Revoke invalidates the session for token.
// Unknown tokens yield a 401-class error.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return auth.TokenError(auth.ReasonMissingToken, nil)
	}

	storeCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if err := i.store.RevokeSession(storeCtx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return auth.TokenError(auth.ReasonUnknownToken, err)
		}
		return i.infrastructure(err)
	}

	i.logger.Info("admin session revoked")
	return nil
}

// authorize normalizes input and checks directory membership for the scope.
func (i *Issuer) authorize(ctx context.Context, rawEmail, rawScope string) (string, scope.Scope, error) {
	email := directory.NormalizeEmail(rawEmail)
	if email == "" {
		return "", "", auth.ValidationError("email is required")
	}
	s := scope.Normalize(rawScope)

	dirCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	allowed, err := i.directory.Emails(dirCtx, s)
	if err != nil {
		return "", "", i.infrastructure(err)
	}
	if len(allowed) == 0 {
		i.logger.Error("no administrators configured for scope", "scope", s)
		return "", "", auth.NotConfiguredError(s)
	}
	if !allowed.Contains(email) {
		i.logger.Info("issuance rejected: email not listed", "email", email, "scope", s)
		return "", "", auth.NotListedError(s)
	}
	return email, s, nil
}

func (i *Issuer) result(ctx context.Context, token string, sess *storage.AdminSession) (*Result, error) {
	accessCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	access, err := i.aggregator.Access(accessCtx, sess.Email)
	if err != nil {
		// The session exists; report it with an empty access set rather than lose the token.
		i.logger.Warn("access lookup failed after issuance", "email", sess.Email, "error", err)
	}

	return &Result{
		Token:     token,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
		Access:    access,
	}, nil
}

// discardPasscode removes a passcode nobody received so the previously delivered
// code stays the newest one.
func (i *Issuer) discardPasscode(ctx context.Context, p *storage.Passcode) {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	if err := i.store.DiscardPasscode(storeCtx, p.ID); err != nil {
		i.logger.Error("failed to discard undelivered passcode", "email", p.Email, "error", err)
	}
}

func (i *Issuer) rejectPasscode(email string, s scope.Scope, why string, cause error) error {
	i.logger.Info("passcode rejected", "email", email, "scope", s, "reason", why)
	metrics.RecordPasscodeRedemption("rejected")
	return auth.CredentialError(cause)
}

func (i *Issuer) infrastructure(err error) error {
	var classified *auth.Error
	if errors.As(err, &classified) {
		return classified
	}
	i.logger.Error("session store failure", "error", err)
	return auth.InfrastructureError(err)
}

func (i *Issuer) recordFailure(err error) {
	if err == nil {
		return
	}
	var e *auth.Error
	if errors.As(err, &e) {
		metrics.RecordAuthFailure(e.Reason)
	}
}

// ttl converts hours into a duration. Non-positive values fall back to 12 hours.
func ttl(hours int) time.Duration {
	if hours <= 0 {
		hours = DefaultTTLHours
	}
	return time.Duration(hours) * time.Hour
}

// DefaultTTLHours is used when a request carries no TTL.
const DefaultTTLHours = 12
