package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/storage"
)

// Kind classifies a failure at the API boundary.
type Kind int

const (
	// KindValidation is missing or empty required input.
	KindValidation Kind = iota + 1
	// KindAuthorization is an email or principal lacking the required scope.
	KindAuthorization
	// KindAuthentication is a credential that could not be proven.
	KindAuthentication
	// KindConfiguration means an operator has to act before anyone can log in.
	KindConfiguration
	// KindInfrastructure is an unreachable or permission-denied backing store.
	KindInfrastructure
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindAuthentication:
		return "authentication"
	case KindConfiguration:
		return "configuration"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Failure reasons used in logs and metrics labels.
const (
	ReasonMissingField       = "missing_field"
	ReasonMissingToken       = "missing_token"
	ReasonUnknownToken       = "unknown_token"
	ReasonRevoked            = "revoked"
	ReasonExpired            = "expired"
	ReasonScope              = "scope"
	ReasonNotListed          = "not_listed"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonNotConfigured      = "not_configured"
	ReasonPermission         = "permission"
	ReasonUnavailable        = "unavailable"
)

// Messages returned to clients. They never carry backend detail.
const (
	msgInvalidCredentials = "invalid or expired credentials"
	msgUnauthenticated    = "invalid or expired session"
	msgMissingToken       = "authentication required"
	msgUnavailable        = "service temporarily unavailable, contact the administrator"
)

// Error is a classified failure carrying the HTTP status and the client-safe message.
// Err holds the underlying cause for server-side logging only.
type Error struct {
	Kind    Kind
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports missing or empty input.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Reason: ReasonMissingField, Message: message}
}

// NotListedError reports an email that is not on the allowlist for s.
func NotListedError(s scope.Scope) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Status:  http.StatusForbidden,
		Reason:  ReasonNotListed,
		Message: fmt.Sprintf("this email is not authorized for %s access", s.Label()),
	}
}

// ScopeError reports an authenticated principal that lacks s.
func ScopeError(s scope.Scope) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Status:  http.StatusForbidden,
		Reason:  ReasonScope,
		Message: fmt.Sprintf("%s access required", s.Label()),
	}
}

// CredentialError reports a failed password or passcode at issuance time.
// The message is identical for wrong, expired and already-used secrets.
func CredentialError(err error) *Error {
	return &Error{
		Kind:    KindAuthentication,
		Status:  http.StatusForbidden,
		Reason:  ReasonInvalidCredentials,
		Message: msgInvalidCredentials,
		Err:     err,
	}
}

// TokenError reports a bearer token that does not resolve to a usable session.
func TokenError(reason string, err error) *Error {
	msg := msgUnauthenticated
	if reason == ReasonMissingToken {
		msg = msgMissingToken
	}
	return &Error{
		Kind:    KindAuthentication,
		Status:  http.StatusUnauthorized,
		Reason:  reason,
		Message: msg,
		Err:     err,
	}
}

// NotConfiguredError reports a scope with no administrators configured.
func NotConfiguredError(s scope.Scope) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Status:  http.StatusInternalServerError,
		Reason:  ReasonNotConfigured,
		Message: fmt.Sprintf("%s access is not configured, contact the administrator", s.Label()),
	}
}

// ConfigurationError reports missing operational configuration.
func ConfigurationError(message string, err error) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Status:  http.StatusInternalServerError,
		Reason:  ReasonNotConfigured,
		Message: message,
		Err:     err,
	}
}

// InfrastructureError wraps a backend failure behind the generic message.
// Permission denials and unreachable stores are told apart only by Reason.
func InfrastructureError(err error) *Error {
	reason := ReasonUnavailable
	if errors.Is(err, storage.ErrPermission) {
		reason = ReasonPermission
	}
	return &Error{
		Kind:    KindInfrastructure,
		Status:  http.StatusInternalServerError,
		Reason:  reason,
		Message: msgUnavailable,
		Err:     err,
	}
}

// AsError returns err as an *Error. Unclassified errors become infrastructure failures
// so nothing reaches a client unmapped.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InfrastructureError(err)
}
