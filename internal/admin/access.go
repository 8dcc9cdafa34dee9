package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sipico/admin-gate/internal/auth"
)

// AccessView is the scope membership reported by check-access.
// Admin and Coordinator are omitted unless the caller holds the admin scope.
type AccessView struct {
	Approvals   bool  `json:"approvals"`
	Updates     bool  `json:"updates"`
	Admin       *bool `json:"admin,omitempty"`
	Coordinator *bool `json:"coordinator,omitempty"`
}

// AccessResponse is the body of GET /api/admin/access
type AccessResponse struct {
	OK     bool       `json:"ok"`
	Email  string     `json:"email"`
	Source string     `json:"source"`
	Access AccessView `json:"access"`
}

// HandleCheckAccess reports the caller's current scopes
// GET /api/admin/access
// Accepts the SSO cookie or Authorization: Bearer <token>.
func (h *Handler) HandleCheckAccess(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		h.rejectRequest(w, r, auth.TokenError(auth.ReasonMissingToken, nil))
		return
	}

	view := AccessView{
		Approvals: p.Access.Approvals,
		Updates:   p.Access.Updates,
	}
	if p.Access.Admin {
		admin, coordinator := p.Access.Admin, p.Access.Coordinator
		view.Admin = &admin
		view.Coordinator = &coordinator
	}

	writeJSON(w, http.StatusOK, AccessResponse{
		OK:     true,
		Email:  p.Email,
		Source: string(p.Source),
		Access: view,
	})
}

// SetLogLevelRequest is the request body for POST /api/admin/loglevel
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// HandleSetLogLevel changes runtime log level
// POST /api/admin/loglevel
// Body: {"level": "debug|info|warn|error"}
func (h *Handler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLogLevelRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var level slog.Level
	switch strings.ToLower(req.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		h.rejectRequest(w, r, auth.ValidationError("invalid level (must be: debug, info, warn, error)"))
		return
	}

	h.logLevel.Set(level)
	logger := h.logger.With("new_level", level.String())
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		logger = logger.With("by", p.Email)
	}
	logger.Info("log level changed")

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"level": strings.ToLower(level.String()),
	})
}
