package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sipico/admin-gate/internal/scope"
)

// SSOClaims is the browser single-sign-on identity carried in the SSO cookie.
type SSOClaims struct {
	jwt.RegisteredClaims
	Email  string   `json:"email"`
	Scopes []string `json:"scopes,omitempty"`
}

// SSOAuthenticator trusts an HS256-signed SSO identity issued by the site login.
// The identity is taken as proof of email; scope membership still comes from the
// directory, merged with any scopes asserted in the claims.
type SSOAuthenticator struct {
	secret []byte
	access AccessResolver
	now    func() time.Time
	logger *slog.Logger
}

// NewSSOAuthenticator creates an SSOAuthenticator verifying with secret.
// If logger is nil, slog.Default() is used.
func NewSSOAuthenticator(secret []byte, access AccessResolver, logger *slog.Logger) *SSOAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSOAuthenticator{
		secret: secret,
		access: access,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source used for exp/nbf checks. Intended for tests.
func (a *SSOAuthenticator) SetClock(now func() time.Time) {
	a.now = now
}

// Authenticate implements Authenticator. A missing or invalid SSO identity yields
// ErrNoCredentials so the bearer path can still be tried.
func (a *SSOAuthenticator) Authenticate(ctx context.Context, c Credentials) (*Principal, error) {
	if c.SSO == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.parse(c.SSO)
	if err != nil {
		a.logger.Debug("ignoring invalid SSO identity", "error", err)
		return nil, ErrNoCredentials
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		a.logger.Debug("ignoring SSO identity without email")
		return nil, ErrNoCredentials
	}

	access, err := a.access.Access(ctx, email)
	if err != nil {
		a.logger.Error("directory lookup failed", "email", email, "error", err)
		return nil, InfrastructureError(err)
	}
	var asserted scope.Access
	for _, raw := range claims.Scopes {
		asserted = asserted.Grant(scope.Normalize(raw))
	}

	return &Principal{
		Email:  email,
		Access: access.Merge(asserted),
		Source: SourceSSO,
	}, nil
}

func (a *SSOAuthenticator) parse(raw string) (*SSOClaims, error) {
	claims := &SSOClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid SSO token")
	}
	return claims, nil
}

// SignSSO issues an SSO identity for email. Used by the site login and by tests.
func SignSSO(secret []byte, email string, scopes []string, expiresAt time.Time) (string, error) {
	claims := SSOClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:  email,
		Scopes: scopes,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
