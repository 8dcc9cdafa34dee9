package storage

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicate is returned when attempting to create a resource that already exists.
	ErrDuplicate = errors.New("resource already exists")

	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrSessionRevoked is returned when a session exists but was explicitly revoked.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrSessionExpired is returned when a session exists but its expiry has passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrPasscodeConsumed is returned when a conditional redemption finds the
	// passcode already used or past its deadline.
	ErrPasscodeConsumed = errors.New("passcode already used or expired")

	// ErrPermission is returned when the database refuses a write (read-only file,
	// missing permissions, authorizer denial).
	ErrPermission = errors.New("storage permission denied")

	// ErrUnavailable is returned when the database cannot be reached in time.
	ErrUnavailable = errors.New("storage unavailable")
)

// classify maps driver errors onto the package sentinels using SQLite result codes.
// Errors it does not recognise are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	// Extended codes carry the primary code in the low byte.
	switch sqliteErr.Code() & 0xFF {
	case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
		return fmt.Errorf("%w: %w", ErrPermission, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
