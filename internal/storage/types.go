package storage

import "time"

// AdminSession is a persisted bearer session for one admin email.
// The plaintext token is never stored; TokenHash is its SHA-256.
type AdminSession struct {
	ID            int64
	TokenHash     string
	Email         string
	CodeHash      string // empty when issued via password
	CodeExpiresAt *time.Time
	CodeUsedAt    *time.Time
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Revoked       bool
}

// Active reports whether the session may still authenticate requests at now.
func (s *AdminSession) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Passcode is an issued one-time code awaiting redemption.
type Passcode struct {
	ID        int64
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	Attempts  int // redemption attempts claimed so far
	CreatedAt time.Time
}

// MaxPasscodeAttempts is how many redemption attempts one passcode allows.
const MaxPasscodeAttempts = 5

// Redeemable reports whether the passcode is unused, inside its validity window
// and has attempts left.
func (p *Passcode) Redeemable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt) && p.Attempts < MaxPasscodeAttempts
}

// DirectoryEntry grants one scope to one email.
type DirectoryEntry struct {
	Scope     string
	Email     string
	CreatedAt time.Time
}
