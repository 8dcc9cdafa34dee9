package logging

import (
	"encoding/json"
	"testing"
)

func TestMaskHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"bearer token", "Authorization", "Bearer 0123456789abcdef", "****cdef"},
		{"short token", "Authorization", "abc", "****"},
		{"api key", "X-API-Key", "key-123456789", "****6789"},
		{"cookie", "Cookie", "sso_session=eyJhbGciOi", "[REDACTED]"},
		{"set-cookie", "Set-Cookie", "sso_session=abc", "[REDACTED]"},
		{"password header", "X-Admin-Password", "hunter2", "[REDACTED]"},
		{"secret header", "X-Webhook-Secret", "s", "[REDACTED]"},
		{"content type", "Content-Type", "application/json", "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MaskHeader(tt.header, tt.value); got != tt.want {
				t.Errorf("MaskHeader(%q, %q) = %q, want %q", tt.header, tt.value, got, tt.want)
			}
		})
	}
}

func TestMaskJSONBodyRedactsSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		redacted []string
		kept     map[string]any
	}{
		{
			name:     "password login",
			body:     `{"email":"root@example.org","password":"hunter2","scope":"admin"}`,
			redacted: []string{"password"},
			kept:     map[string]any{"email": "root@example.org", "scope": "admin"},
		},
		{
			name:     "passcode login",
			body:     `{"email":"c@example.org","code":"483920"}`,
			redacted: []string{"code"},
			kept:     map[string]any{"email": "c@example.org"},
		},
		{
			name:     "issued session",
			body:     `{"ok":true,"token":"abcdef0123456789","email":"c@example.org"}`,
			redacted: []string{"token"},
			kept:     map[string]any{"ok": true, "email": "c@example.org"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got map[string]any
			if err := json.Unmarshal(MaskJSONBody([]byte(tt.body), SafeFields), &got); err != nil {
				t.Fatalf("masked body is not JSON: %v", err)
			}
			for _, field := range tt.redacted {
				if got[field] != "[REDACTED]" {
					t.Errorf("%s = %v, want [REDACTED]", field, got[field])
				}
			}
			for field, want := range tt.kept {
				if got[field] != want {
					t.Errorf("%s = %v, want %v", field, got[field], want)
				}
			}
		})
	}
}

func TestMaskJSONBodyNested(t *testing.T) {
	t.Parallel()

	body := `{"ok":true,"access":{"admin":false,"updates":true},"items":[{"email":"a@example.org","token":"x"}]}`
	var got map[string]any
	if err := json.Unmarshal(MaskJSONBody([]byte(body), SafeFields), &got); err != nil {
		t.Fatalf("masked body is not JSON: %v", err)
	}

	access := got["access"].(map[string]any)
	if access["updates"] != true {
		t.Errorf("nested allowlisted field lost: %v", access)
	}
	item := got["items"].([]any)[0].(map[string]any)
	if item["token"] != "[REDACTED]" || item["email"] != "a@example.org" {
		t.Errorf("array element not masked correctly: %v", item)
	}
}

func TestMaskJSONBodyPassThrough(t *testing.T) {
	t.Parallel()

	if got := string(MaskJSONBody([]byte(`{"password":"x"}`), nil)); got != `{"password":"x"}` {
		t.Errorf("nil allowlist should not mask, got %s", got)
	}
	if got := string(MaskJSONBody([]byte("not json"), SafeFields)); got != "not json" {
		t.Errorf("invalid JSON should be returned unchanged, got %s", got)
	}
	if got := MaskJSONBody(nil, SafeFields); len(got) != 0 {
		t.Errorf("empty body should stay empty, got %s", got)
	}
}

func TestFormatBinaryData(t *testing.T) {
	t.Parallel()

	if got := FormatBinaryData([]byte{0xff, 0xfe, 0x00}); got != "[BINARY: 3 bytes]" {
		t.Errorf("FormatBinaryData = %q", got)
	}
}
