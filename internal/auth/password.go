package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordNotConfigured means no admin password was configured.
	ErrPasswordNotConfigured = errors.New("auth: admin password not configured")
	// ErrPasswordMismatch means the submitted password is wrong.
	ErrPasswordMismatch = errors.New("auth: admin password mismatch")
)

// PasswordVerifier checks submitted passwords against the single configured admin secret.
// Only a bcrypt hash is held in memory.
type PasswordVerifier struct {
	hash []byte
}

// NewPasswordVerifier hashes plain with bcrypt. An empty plain password yields a verifier
// that rejects everything with ErrPasswordNotConfigured.
func NewPasswordVerifier(plain string) (*PasswordVerifier, error) {
	if plain == "" {
		return &PasswordVerifier{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &PasswordVerifier{hash: hash}, nil
}

// NewPasswordVerifierFromHash uses a precomputed bcrypt hash.
func NewPasswordVerifierFromHash(hash string) (*PasswordVerifier, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return &PasswordVerifier{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &PasswordVerifier{hash: []byte(hash)}, nil
}

// Configured reports whether a password is set.
func (v *PasswordVerifier) Configured() bool {
	return v != nil && len(v.hash) > 0
}

// Verify returns nil when password matches. The two failure sentinels are for
// server-side logging; callers present both to clients identically.
func (v *PasswordVerifier) Verify(password string) error {
	if !v.Configured() {
		return ErrPasswordNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
