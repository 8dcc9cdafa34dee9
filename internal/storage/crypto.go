package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the SHA-256 hex digest under which a bearer token is stored.
// Tokens carry 256 bits of entropy, so an unsalted fast hash is sufficient for lookup.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
