// Package notify delivers one-time passcodes to administrators out of band.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sipico/admin-gate/internal/session"
)

var _ session.Notifier = (*Webhook)(nil)
var _ session.Notifier = (*Log)(nil)

// payload is the JSON document posted to the webhook.
type payload struct {
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	Scope      string    `json:"scope"`
	ScopeLabel string    `json:"scopeLabel"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Webhook posts passcodes to an external mailer as JSON.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook notifier. Requests are bounded by timeout and logged
// (with the code masked) through LoggingTransport.
func NewWebhook(url string, timeout time.Duration, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &LoggingTransport{Logger: logger},
		},
	}
}

// SendPasscode implements session.Notifier. Any non-2xx response is an error.
func (w *Webhook) SendPasscode(ctx context.Context, msg session.PasscodeMessage) error {
	body, err := json.Marshal(payload{
		Email:      msg.Email,
		Code:       msg.Code,
		Scope:      msg.Scope.String(),
		ScopeLabel: msg.Scope.Label(),
		ExpiresAt:  msg.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode passcode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build passcode notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("passcode notification failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("passcode notification rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Log writes passcode notifications to the logger. The code is only included when
// revealCodes is set, which is meant for local development.
type Log struct {
	logger      *slog.Logger
	revealCodes bool
}

// NewLog creates a Log notifier. If logger is nil, slog.Default() is used.
func NewLog(logger *slog.Logger, revealCodes bool) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, revealCodes: revealCodes}
}

// SendPasscode implements session.Notifier.
func (l *Log) SendPasscode(ctx context.Context, msg session.PasscodeMessage) error {
	attrs := []any{
		"email", msg.Email,
		"scope", msg.Scope.String(),
		"expires_at", msg.ExpiresAt,
	}
	if l.revealCodes {
		attrs = append(attrs, "code", msg.Code)
	}
	l.logger.InfoContext(ctx, "passcode ready for delivery", attrs...)
	return nil
}
