package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddDirectoryEntry grants scope to email.
// Returns ErrDuplicate if the grant already exists.
func (s *SQLiteStorage) AddDirectoryEntry(ctx context.Context, scope, email string) error {
	if scope == "" {
		return errors.New("scope required")
	}
	if email == "" {
		return errors.New("email required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO directory_entries (scope, email, created_at) VALUES (?, ?, ?)",
		scope, email, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to add directory entry: %w", classify(err))
	}
	return nil
}

// RemoveDirectoryEntry revokes scope from email.
// Returns ErrNotFound if the grant does not exist.
func (s *SQLiteStorage) RemoveDirectoryEntry(ctx context.Context, scope, email string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM directory_entries WHERE scope = ? AND email = ?",
		scope, email,
	)
	if err != nil {
		return fmt.Errorf("failed to remove directory entry: %w", classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDirectoryEntries returns all grants ordered by scope then email.
// Returns empty slice if none exist.
func (s *SQLiteStorage) ListDirectoryEntries(ctx context.Context) ([]*DirectoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT scope, email, created_at FROM directory_entries ORDER BY scope, email",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory entries: %w", classify(err))
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]*DirectoryEntry, 0)
	for rows.Next() {
		var (
			e         DirectoryEntry
			createdAt int64
		)
		if err := rows.Scan(&e.Scope, &e.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan directory entry row: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating directory entries: %w", classify(err))
	}

	return entries, nil
}

// DirectoryEmails returns the distinct emails holding any of the given scopes.
// Returns empty slice when no scopes are given or none match.
func (s *SQLiteStorage) DirectoryEmails(ctx context.Context, scopes ...string) ([]string, error) {
	emails := make([]string, 0)
	if len(scopes) == 0 {
		return emails, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(scopes)), ",")
	args := make([]any, len(scopes))
	for i, sc := range scopes {
		args[i] = sc
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT email FROM directory_entries WHERE scope IN ("+placeholders+") ORDER BY email",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory emails: %w", classify(err))
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan directory email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating directory emails: %w", classify(err))
	}

	return emails, nil
}

// DirectoryScopes returns every scope granted to email in a single query.
func (s *SQLiteStorage) DirectoryScopes(ctx context.Context, email string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT scope FROM directory_entries WHERE email = ? ORDER BY scope",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory scopes: %w", classify(err))
	}
	defer rows.Close() //nolint:errcheck

	scopes := make([]string, 0)
	for rows.Next() {
		var sc string
		if err := rows.Scan(&sc); err != nil {
			return nil, fmt.Errorf("failed to scan directory scope: %w", err)
		}
		scopes = append(scopes, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating directory scopes: %w", classify(err))
	}

	return scopes, nil
}
