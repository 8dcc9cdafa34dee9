// Package mockstore provides a configurable mock implementation of storage interfaces for testing.
//
// The MockStorage type uses function fields for each method, allowing tests to customize behavior
// as needed while providing sensible defaults for methods that aren't customized.
package mockstore

import (
	"context"
	"time"

	"github.com/sipico/admin-gate/internal/storage"
)

// MockStorage is a configurable mock implementation of storage.Storage.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a sensible default value.
type MockStorage struct {
	// Session operations
	CreateSessionFunc            func(ctx context.Context, token string, s *storage.AdminSession) error
	FindActiveSessionByTokenFunc func(ctx context.Context, token string, now time.Time) (*storage.AdminSession, error)
	RevokeSessionFunc            func(ctx context.Context, token string) error

	// Passcode operations
	CreatePasscodeFunc          func(ctx context.Context, p *storage.Passcode) error
	LatestPasscodeFunc          func(ctx context.Context, email string) (*storage.Passcode, error)
	ClaimPasscodeAttemptFunc    func(ctx context.Context, id int64) error
	DiscardPasscodeFunc         func(ctx context.Context, id int64) error
	MarkPasscodeUsedIfUnsetFunc func(ctx context.Context, id int64, usedAt time.Time) error
	RedeemPasscodeFunc          func(ctx context.Context, passcodeID int64, token string, s *storage.AdminSession) error

	// Directory operations
	AddDirectoryEntryFunc    func(ctx context.Context, scope, email string) error
	RemoveDirectoryEntryFunc func(ctx context.Context, scope, email string) error
	ListDirectoryEntriesFunc func(ctx context.Context) ([]*storage.DirectoryEntry, error)
	DirectoryEmailsFunc      func(ctx context.Context, scopes ...string) ([]string, error)
	DirectoryScopesFunc      func(ctx context.Context, email string) ([]string, error)

	// Lifecycle
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

var _ storage.Storage = (*MockStorage)(nil)

// CreateSession persists a session.
func (m *MockStorage) CreateSession(ctx context.Context, token string, s *storage.AdminSession) error {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, token, s)
	}
	return nil
}

// FindActiveSessionByToken looks up a usable session.
func (m *MockStorage) FindActiveSessionByToken(ctx context.Context, token string, now time.Time) (*storage.AdminSession, error) {
	if m.FindActiveSessionByTokenFunc != nil {
		return m.FindActiveSessionByTokenFunc(ctx, token, now)
	}
	return nil, storage.ErrNotFound
}

// RevokeSession revokes a session.
func (m *MockStorage) RevokeSession(ctx context.Context, token string) error {
	if m.RevokeSessionFunc != nil {
		return m.RevokeSessionFunc(ctx, token)
	}
	return storage.ErrNotFound
}

// CreatePasscode persists a passcode digest.
func (m *MockStorage) CreatePasscode(ctx context.Context, p *storage.Passcode) error {
	if m.CreatePasscodeFunc != nil {
		return m.CreatePasscodeFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

// LatestPasscode returns the newest passcode for email.
func (m *MockStorage) LatestPasscode(ctx context.Context, email string) (*storage.Passcode, error) {
	if m.LatestPasscodeFunc != nil {
		return m.LatestPasscodeFunc(ctx, email)
	}
	return nil, storage.ErrNotFound
}

// ClaimPasscodeAttempt counts a redemption attempt.
func (m *MockStorage) ClaimPasscodeAttempt(ctx context.Context, id int64) error {
	if m.ClaimPasscodeAttemptFunc != nil {
		return m.ClaimPasscodeAttemptFunc(ctx, id)
	}
	return nil
}

// DiscardPasscode deletes an undelivered passcode.
func (m *MockStorage) DiscardPasscode(ctx context.Context, id int64) error {
	if m.DiscardPasscodeFunc != nil {
		return m.DiscardPasscodeFunc(ctx, id)
	}
	return nil
}

// MarkPasscodeUsedIfUnset consumes a passcode.
func (m *MockStorage) MarkPasscodeUsedIfUnset(ctx context.Context, id int64, usedAt time.Time) error {
	if m.MarkPasscodeUsedIfUnsetFunc != nil {
		return m.MarkPasscodeUsedIfUnsetFunc(ctx, id, usedAt)
	}
	return nil
}

// RedeemPasscode consumes a passcode and creates a session.
func (m *MockStorage) RedeemPasscode(ctx context.Context, passcodeID int64, token string, s *storage.AdminSession) error {
	if m.RedeemPasscodeFunc != nil {
		return m.RedeemPasscodeFunc(ctx, passcodeID, token, s)
	}
	return nil
}

// AddDirectoryEntry grants a scope to an email.
func (m *MockStorage) AddDirectoryEntry(ctx context.Context, scope, email string) error {
	if m.AddDirectoryEntryFunc != nil {
		return m.AddDirectoryEntryFunc(ctx, scope, email)
	}
	return nil
}

// RemoveDirectoryEntry revokes a scope from an email.
func (m *MockStorage) RemoveDirectoryEntry(ctx context.Context, scope, email string) error {
	if m.RemoveDirectoryEntryFunc != nil {
		return m.RemoveDirectoryEntryFunc(ctx, scope, email)
	}
	return storage.ErrNotFound
}

// ListDirectoryEntries returns every directory entry.
func (m *MockStorage) ListDirectoryEntries(ctx context.Context) ([]*storage.DirectoryEntry, error) {
	if m.ListDirectoryEntriesFunc != nil {
		return m.ListDirectoryEntriesFunc(ctx)
	}
	return make([]*storage.DirectoryEntry, 0), nil
}

// DirectoryEmails returns the emails holding any of scopes.
func (m *MockStorage) DirectoryEmails(ctx context.Context, scopes ...string) ([]string, error) {
	if m.DirectoryEmailsFunc != nil {
		return m.DirectoryEmailsFunc(ctx, scopes...)
	}
	return make([]string, 0), nil
}

// DirectoryScopes returns the scopes held by email.
func (m *MockStorage) DirectoryScopes(ctx context.Context, email string) ([]string, error) {
	if m.DirectoryScopesFunc != nil {
		return m.DirectoryScopesFunc(ctx, email)
	}
	return make([]string, 0), nil
}

// Ping checks database connectivity.
func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close closes the storage.
func (m *MockStorage) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
