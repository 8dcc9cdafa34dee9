package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sipico/admin-gate/internal/storage"
)

// TokenAuthenticator resolves bearer tokens through the session store.
// Scope membership is read from the live directory on every call, never from the session.
type TokenAuthenticator struct {
	sessions SessionFinder
	access   AccessResolver
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewTokenAuthenticator creates a TokenAuthenticator. Each store and directory call
// is bounded by timeout. If logger is nil, slog.Default() is used.
func NewTokenAuthenticator(sessions SessionFinder, access AccessResolver, timeout time.Duration, logger *slog.Logger) *TokenAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenAuthenticator{
		sessions: sessions,
		access:   access,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source. Intended for tests.
func (a *TokenAuthenticator) SetClock(now func() time.Time) {
	a.now = now
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, c Credentials) (*Principal, error) {
	if c.Token == "" {
		return nil, ErrNoCredentials
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	sess, err := a.sessions.FindActiveSessionByToken(lookupCtx, c.Token, a.now())
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		return nil, TokenError(ReasonUnknownToken, err)
	case errors.Is(err, storage.ErrSessionRevoked):
		return nil, TokenError(ReasonRevoked, err)
	case errors.Is(err, storage.ErrSessionExpired):
		return nil, TokenError(ReasonExpired, err)
	default:
		a.logger.Error("session lookup failed", "error", err)
		return nil, InfrastructureError(err)
	}

	accessCtx, cancelAccess := context.WithTimeout(ctx, a.timeout)
	defer cancelAccess()

	access, err := a.access.Access(accessCtx, sess.Email)
	if err != nil {
		a.logger.Error("directory lookup failed", "email", sess.Email, "error", err)
		return nil, InfrastructureError(err)
	}

	return &Principal{
		Email:   sess.Email,
		Access:  access,
		Source:  SourceToken,
		Session: sess,
	}, nil
}
