package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/admin-gate/internal/auth"
	"github.com/sipico/admin-gate/internal/metrics"
	"github.com/sipico/admin-gate/internal/middleware"
)

// errorResponse is the body of every failed admin request.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are not recoverable once the header is sent
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps err onto its status and client-safe message.
// The underlying cause is logged and never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := auth.AsError(err)
	logger := middleware.Logger(r.Context(), h.logger).With(
		"kind", e.Kind.String(),
		"reason", e.Reason,
		"status", e.Status,
		"path", r.URL.Path,
	)

	switch e.Kind {
	case auth.KindInfrastructure, auth.KindConfiguration:
		logger.Error("admin request failed", "error", e.Err)
	case auth.KindValidation:
		logger.Debug("admin request rejected")
	default:
		logger.Info("admin request rejected")
	}

	writeJSON(w, e.Status, errorResponse{OK: false, Error: e.Message})
}

// rejectRequest is writeError for failures the issuer has not already counted.
func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordAuthFailure(auth.AsError(err).Reason)
	h.writeError(w, r, err)
}

// decodeJSON reads the request body into v.
// Malformed bodies are validation errors; oversized bodies are reported as 413.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{OK: false, Error: "request body too large"})
		return false
	}

	h.rejectRequest(w, r, auth.ValidationError("invalid JSON body"))
	return false
}
