package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sipico/admin-gate/internal/logging"
)

// HTTPLogging logs each request/response exchange at DEBUG level with secrets masked.
// It is a pass-through when the logger is above DEBUG.
//
// allowlist names the JSON fields that may be logged verbatim; every other primitive
// is replaced by "[REDACTED]". A nil allowlist uses logging.SafeFields.
func HTTPLogging(logger *slog.Logger, allowlist []string) func(http.Handler) http.Handler {
	if allowlist == nil {
		allowlist = logging.SafeFields
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			var reqBody []byte
			if r.Body != nil {
				var err error
				reqBody, err = io.ReadAll(r.Body)
				if err != nil {
					Logger(r.Context(), logger).Error("failed to read request body", "error", err)
					writeJSONError(w, http.StatusBadRequest, "unreadable request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           new(bytes.Buffer),
			}

			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			Logger(r.Context(), logger).Debug("HTTP exchange",
				slog.Group("request",
					"method", r.Method,
					"path", r.URL.Path,
					"headers", maskHeaders(r.Header),
					"body", maskBody(reqBody, allowlist),
				),
				slog.Group("response",
					"status_code", rec.statusCode,
					"headers", maskHeaders(rec.Header()),
					"body", maskBody(rec.body.Bytes(), allowlist),
				),
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// maskHeaders masks sensitive header values
func maskHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) > 0 {
			result[k] = logging.MaskHeader(k, v[0])
		}
	}
	return result
}

func maskBody(body []byte, allowlist []string) string {
	if len(body) == 0 {
		return ""
	}
	if !utf8.Valid(body) {
		return logging.FormatBinaryData(body)
	}
	return string(logging.MaskJSONBody(body, allowlist))
}

// responseRecorder captures response details for logging.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

// WriteHeader captures the status code and writes it to the response.
func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Write captures the response body and writes it to the response.
func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
