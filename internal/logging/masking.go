// Package logging provides utilities for secure logging with data masking.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

// SafeFields are the JSON fields of admin requests and responses that carry no secret.
// password, code and token are deliberately absent.
var SafeFields = []string{
	"ok", "error", "email", "scope", "scopeLabel", "expiresAt",
	"access", "admin", "approvals", "updates", "coordinator",
	"level", "status", "database",
}

// MaskHeader redacts sensitive header values based on header name.
//
// Rules:
// - Password, secret and cookie headers: "[REDACTED]" (no partial reveal)
// - Authorization: "****" + last 4 chars (e.g., "****ab3f")
// - Other headers: returned unchanged
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	if strings.Contains(lowerName, "password") ||
		strings.Contains(lowerName, "secret") ||
		lowerName == "cookie" ||
		lowerName == "set-cookie" {
		return redacted
	}

	if lowerName == "authorization" || lowerName == "x-api-key" {
		return MaskToken(value)
	}

	return value
}

// MaskToken shows only the last 4 characters of a credential.
// Values shorter than 8 characters are fully masked.
func MaskToken(value string) string {
	if len(value) < 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// MaskJSONBody redacts non-allowlisted fields in a JSON body.
//
// If allowlist is nil, returns the body unchanged (everything allowed).
// Otherwise only allowlisted primitives are preserved; objects and arrays are
// walked so nested allowlisted fields survive. Returns the original body if it
// is not valid JSON.
func MaskJSONBody(body []byte, allowlist []string) []byte {
	if allowlist == nil || len(body) == 0 {
		return body
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	allowed := make(map[string]bool, len(allowlist))
	for _, field := range allowlist {
		allowed[field] = true
	}

	result, err := json.Marshal(maskJSONValue(data, allowed))
	if err != nil {
		return body
	}
	return result
}

func maskJSONValue(value any, allowed map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			switch val.(type) {
			case map[string]any, []any:
				result[key] = maskJSONValue(val, allowed)
			default:
				if allowed[key] {
					result[key] = val
				} else {
					result[key] = redacted
				}
			}
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = maskJSONValue(item, allowed)
		}
		return result
	default:
		return value
	}
}

// FormatBinaryData formats binary data for logging.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}
