package middleware

import (
	"net/http"
)

// MaxBodySize returns middleware that limits request body size.
// Requests declaring a larger Content-Length are rejected with 413 before the handler
// runs; bodies without a declared length fail when the handler reads past maxBytes.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
