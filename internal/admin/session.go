package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/session"
)

// PasswordRequest is the request body for POST /api/admin/session/password
type PasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Scope    string `json:"scope,omitempty"`
}

// PasscodeRequest is the request body for POST /api/admin/passcode
type PasscodeRequest struct {
	Email string `json:"email"`
	Scope string `json:"scope,omitempty"`
}

// RedeemRequest is the request body for POST /api/admin/session/passcode
type RedeemRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Scope string `json:"scope,omitempty"`
}

// SessionResponse carries a newly issued bearer token. The token is shown only once.
type SessionResponse struct {
	OK        bool         `json:"ok"`
	Token     string       `json:"token"`
	Email     string       `json:"email"`
	Access    scope.Access `json:"access"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// PasscodeResponse confirms that a passcode was sent.
type PasscodeResponse struct {
	OK        bool      `json:"ok"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleIssueByPassword verifies the shared admin password and issues a session
// POST /api/admin/session/password
// Body: {"email": "...", "password": "...", "scope": "admin|approvals|updates|coordinator"}
func (h *Handler) HandleIssueByPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.rejectRequest(w, r, auth.ValidationError("email and password are required"))
		return
	}

	res, err := h.issuer.IssueByPassword(r.Context(), session.Request{
		Email:    req.Email,
		Secret:   req.Password,
		Scope:    req.Scope,
		TTLHours: h.sessionTTLHours,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(res))
}

// HandleRequestPasscode sends a one-time passcode to a listed email
// POST /api/admin/passcode
// Body: {"email": "...", "scope": "..."}
func (h *Handler) HandleRequestPasscode(w http.ResponseWriter, r *http.Request) {
	var req PasscodeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		h.rejectRequest(w, r, auth.ValidationError("email is required"))
		return
	}

	res, err := h.issuer.RequestPasscode(r.Context(), session.Request{
		Email: req.Email,
		Scope: req.Scope,
	}, h.passcodeTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PasscodeResponse{
		OK:        true,
		Email:     res.Email,
		ExpiresAt: res.ExpiresAt,
	})
}

// HandleIssueByPasscode redeems a passcode and issues a session
// POST /api/admin/session/passcode
// Body: {"email": "...", "code": "123456", "scope": "..."}
func (h *Handler) HandleIssueByPasscode(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		h.rejectRequest(w, r, auth.ValidationError("email and code are required"))
		return
	}

	res, err := h.issuer.IssueByPasscode(r.Context(), session.Request{
		Email:    req.Email,
		Secret:   req.Code,
		Scope:    req.Scope,
		TTLHours: h.sessionTTLHours,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(res))
}

// HandleRevoke revokes the session behind the bearer token
// POST /api/admin/session/revoke
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := h.issuer.Revoke(r.Context(), auth.ExtractBearerToken(r)); err != nil {
		h.rejectRequest(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func sessionResponse(res *session.Result) SessionResponse {
	return SessionResponse{
		OK:        true,
		Token:     res.Token,
		Email:     res.Email,
		Access:    res.Access,
		ExpiresAt: res.ExpiresAt,
	}
}
