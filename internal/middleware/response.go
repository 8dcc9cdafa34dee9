package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the {ok:false, error} body used by every admin endpoint.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": message}) //nolint:errcheck
}
