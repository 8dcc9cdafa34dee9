package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/metrics"
	"github.com/sipico/admin-gate/internal/middleware"
	"github.com/sipico/admin-gate/internal/scope"
)

// NewRouter creates the router with health probes and the admin API.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(chimw.Recoverer)

	// Public endpoints (no auth)
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.CORS(http.MethodGet, http.MethodPost))
		r.Use(middleware.MaxBodySize(maxBodyBytes))
		r.Use(middleware.HTTPLogging(h.logger, nil))

		// Credential endpoints
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter.Middleware)
			}
			r.Post("/session/password", h.HandleIssueByPassword)
			r.Post("/passcode", h.HandleRequestPasscode)
			r.Post("/session/passcode", h.HandleIssueByPasscode)
		})

		r.With(auth.RequireScope(h.guard, scope.Any, h.rejectRequest)).Get("/access", h.HandleCheckAccess)
		r.Post("/session/revoke", h.HandleRevoke)
		r.With(auth.RequireScope(h.guard, scope.Admin, h.rejectRequest)).Post("/loglevel", h.HandleSetLogLevel)
	})

	return r
}
