// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
	"time"
)

// SessionStore is the persistence contract for issued admin sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, token string, s *AdminSession) error
	FindActiveSessionByToken(ctx context.Context, token string, now time.Time) (*AdminSession, error)
	RevokeSession(ctx context.Context, token string) error
}

// PasscodeStore is the persistence contract for one-time passcodes.
// ClaimPasscodeAttempt, MarkPasscodeUsedIfUnset and RedeemPasscode must be conditional
// writes: at most one caller can ever observe success for a given passcode, and no
// more than MaxPasscodeAttempts attempts are ever claimed.
type PasscodeStore interface {
	CreatePasscode(ctx context.Context, p *Passcode) error
	LatestPasscode(ctx context.Context, email string) (*Passcode, error)
	ClaimPasscodeAttempt(ctx context.Context, id int64) error
	DiscardPasscode(ctx context.Context, id int64) error
	MarkPasscodeUsedIfUnset(ctx context.Context, id int64, usedAt time.Time) error
	RedeemPasscode(ctx context.Context, passcodeID int64, token string, s *AdminSession) error
}

// DirectoryStore persists scope memberships when the directory is database backed.
type DirectoryStore interface {
	AddDirectoryEntry(ctx context.Context, scope, email string) error
	RemoveDirectoryEntry(ctx context.Context, scope, email string) error
	ListDirectoryEntries(ctx context.Context) ([]*DirectoryEntry, error)
	DirectoryEmails(ctx context.Context, scopes ...string) ([]string, error)
	DirectoryScopes(ctx context.Context, email string) ([]string, error)
}

// Storage defines the interface for SQLite persistence operations.
type Storage interface {
	SessionStore
	PasscodeStore
	DirectoryStore

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

var _ Storage = (*SQLiteStorage)(nil)
