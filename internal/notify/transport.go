package notify

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sipico/admin-gate/internal/logging"
)

// LoggingTransport wraps an http.RoundTripper and logs webhook traffic at DEBUG.
// Bodies pass through the same allowlist masking as inbound requests, so the
// passcode itself never reaches the log.
type LoggingTransport struct {
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	debug := t.Logger.Enabled(req.Context(), slog.LevelDebug)

	if debug && req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		t.Logger.Debug("webhook request",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"headers", maskHeaders(req.Header),
			"body", string(logging.MaskJSONBody(body, logging.SafeFields)),
		)
	}

	resp, err := t.transport().RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.Logger.Error("webhook request failed",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	t.Logger.Debug("webhook response",
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	return resp, nil
}

func (t *LoggingTransport) transport() http.RoundTripper {
	if t.Transport != nil {
		return t.Transport
	}
	return http.DefaultTransport
}

func maskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = logging.MaskHeader(k, v[0])
		}
	}
	return out
}
