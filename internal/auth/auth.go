// Package auth verifies admin credentials and authorizes requests against a scope.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/storage"
)

// tokenBytes is the entropy of a bearer token (256 bits).
const tokenBytes = 32

// ErrNoCredentials is returned by an Authenticator when its credential is absent,
// so the Guard moves on to the next strategy.
var ErrNoCredentials = errors.New("auth: no credentials")

// GenerateToken returns a new hex-encoded bearer token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ExtractBearerToken returns the Authorization header value with an optional
// "Bearer " prefix removed. A raw unprefixed token is accepted as is.
func ExtractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || strings.EqualFold(header, "Bearer") {
		return ""
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// Source names the strategy that produced a Principal.
type Source string

const (
	// SourceSSO is a browser single-sign-on identity.
	SourceSSO Source = "sso"
	// SourceToken is a bearer token backed by a stored session.
	SourceToken Source = "token"
)

// Principal is an authenticated caller with its current scope membership.
type Principal struct {
	Email   string
	Access  scope.Access
	Source  Source
	Session *storage.AdminSession // nil for SSO principals
}

// Credentials are the raw credentials carried by one request.
type Credentials struct {
	Token string
	SSO   string
}

// Authenticator turns credentials into a Principal.
// It returns ErrNoCredentials when the credential it handles is absent.
type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) (*Principal, error)
}

// AccessResolver computes the scopes an email holds right now.
type AccessResolver interface {
	Access(ctx context.Context, email string) (scope.Access, error)
}

// SessionFinder looks up a usable session by bearer token.
type SessionFinder interface {
	FindActiveSessionByToken(ctx context.Context, token string, now time.Time) (*storage.AdminSession, error)
}
