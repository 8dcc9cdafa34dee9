package auth

import (
	"net/http"

	"github.com/sipico/admin-gate/internal/scope"
)

// ErrorWriter renders an authorization failure to the client.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireScope returns Chi-compatible middleware that authorizes every request for
// required and stores the principal in the context.
func RequireScope(g *Guard, required scope.Scope, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Authorize(r, required)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
