package auth

import (
	"context"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const principalKey ctxKey = iota // stores *Principal

// PrincipalFromContext retrieves the authorized principal from context.
// Returns nil if the request was not authorized.
func PrincipalFromContext(ctx context.Context) *Principal {
	if v := ctx.Value(principalKey); v != nil {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// WithPrincipal adds a principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
