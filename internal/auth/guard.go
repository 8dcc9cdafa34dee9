package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/sipico/admin-gate/internal/scope"
)

// Guard authorizes requests for a required scope by trying each Authenticator in order.
// The first strategy that finds its credential decides the outcome.
type Guard struct {
	strategies []Authenticator
	ssoCookie  string
}

// NewGuard creates a Guard. ssoCookie is the cookie holding the browser SSO identity;
// strategies are evaluated in the given order (SSO first, then bearer token).
func NewGuard(ssoCookie string, strategies ...Authenticator) *Guard {
	return &Guard{strategies: strategies, ssoCookie: ssoCookie}
}

// CredentialsFromRequest extracts the bearer token and SSO cookie from r.
func (g *Guard) CredentialsFromRequest(r *http.Request) Credentials {
	c := Credentials{Token: ExtractBearerToken(r)}
	if g.ssoCookie != "" {
		if cookie, err := r.Cookie(g.ssoCookie); err == nil {
			c.SSO = cookie.Value
		}
	}
	return c
}

// Authorize authenticates r and checks that the principal holds required.
func (g *Guard) Authorize(r *http.Request, required scope.Scope) (*Principal, error) {
	return g.Check(r.Context(), g.CredentialsFromRequest(r), required)
}

// ScopedSession authorizes a bare bearer token for required.
func (g *Guard) ScopedSession(ctx context.Context, token string, required scope.Scope) (*Principal, error) {
	return g.Check(ctx, Credentials{Token: token}, required)
}

// Check runs the strategy chain over c and enforces required.
// Missing credentials yield a 401; a principal without the scope yields a 403.
func (g *Guard) Check(ctx context.Context, c Credentials, required scope.Scope) (*Principal, error) {
	for _, strategy := range g.strategies {
		p, err := strategy.Authenticate(ctx, c)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.Access.Has(required) {
			return nil, ScopeError(required)
		}
		return p, nil
	}
	return nil, TokenError(ReasonMissingToken, nil)
}
