// Package admin provides the HTTP endpoints for issuing, checking and revoking admin sessions.
package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/middleware"
	"github.com/sipico/admin-gate/internal/session"
)

// Default lifetimes used when the handler is not configured otherwise.
const (
	DefaultSessionTTLHours = session.DefaultTTLHours
	DefaultPasscodeTTL     = 10 * time.Minute
)

// maxBodyBytes bounds every admin request body.
const maxBodyBytes = 64 << 10

// Issuer creates and revokes sessions.
type Issuer interface {
	IssueByPassword(ctx context.Context, req session.Request) (*session.Result, error)
	RequestPasscode(ctx context.Context, req session.Request, codeTTL time.Duration) (*session.PasscodeResult, error)
	IssueByPasscode(ctx context.Context, req session.Request) (*session.Result, error)
	Revoke(ctx context.Context, token string) error
}

// Storage is what the readiness probe needs from the database.
type Storage interface {
	Ping(ctx context.Context) error
}

// Handler provides admin endpoints
type Handler struct {
	issuer          Issuer
	guard           *auth.Guard
	storage         Storage
	limiter         *middleware.RateLimiter
	sessionTTLHours int
	passcodeTTL     time.Duration
	logger          *slog.Logger
	logLevel        *slog.LevelVar
}

// NewHandler creates an admin handler
func NewHandler(issuer Issuer, guard *auth.Guard, storage Storage, logLevel *slog.LevelVar, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}

	return &Handler{
		issuer:          issuer,
		guard:           guard,
		storage:         storage,
		sessionTTLHours: DefaultSessionTTLHours,
		passcodeTTL:     DefaultPasscodeTTL,
		logLevel:        logLevel,
		logger:          logger,
	}
}

// SetLifetimes sets the session lifetime passed to the issuer on every request
// and the validity window of new passcodes. Non-positive values keep the current setting.
func (h *Handler) SetLifetimes(sessionTTLHours int, passcodeTTL time.Duration) {
	if sessionTTLHours > 0 {
		h.sessionTTLHours = sessionTTLHours
	}
	if passcodeTTL > 0 {
		h.passcodeTTL = passcodeTTL
	}
}

// SetRateLimiter throttles the credential endpoints per client.
// It must be called before NewRouter.
func (h *Handler) SetRateLimiter(rl *middleware.RateLimiter) {
	h.limiter = rl
}
