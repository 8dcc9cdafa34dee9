package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, token_hash, email, code_hash, code_expires_at, code_used_at, created_at, expires_at, revoked"

// CreateSession persists a new session for token.
// The token is hashed with SHA-256 before storage; s.ID and s.TokenHash are filled in.
// Returns ErrDuplicate if a session with this token already exists.
func (s *SQLiteStorage) CreateSession(ctx context.Context, token string, sess *AdminSession) error {
	return insertSession(ctx, s.db, token, sess)
}

func insertSession(ctx context.Context, db execer, token string, sess *AdminSession) error {
	if token == "" {
		return errors.New("token required")
	}
	if sess.Email == "" {
		return errors.New("email required")
	}

	hash := HashToken(token)

	result, err := db.ExecContext(ctx,
		`INSERT INTO admin_sessions
			(token_hash, email, code_hash, code_expires_at, code_used_at, created_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		hash, sess.Email, sess.CodeHash,
		nullMillis(sess.CodeExpiresAt), nullMillis(sess.CodeUsedAt),
		toMillis(sess.CreatedAt), toMillis(sess.ExpiresAt), sess.Revoked,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}

	sess.ID = id
	sess.TokenHash = hash
	return nil
}

// FindActiveSessionByToken looks up the session for token and checks it at now.
// Returns ErrNotFound for empty or unknown tokens, ErrSessionRevoked and
// ErrSessionExpired for sessions that exist but may no longer be used.
func (s *SQLiteStorage) FindActiveSessionByToken(ctx context.Context, token string, now time.Time) (*AdminSession, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	sess, err := scanSession(s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM admin_sessions WHERE token_hash = ?",
		HashToken(token),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", classify(err))
	}

	if sess.Revoked {
		return nil, ErrSessionRevoked
	}
	if !now.Before(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// RevokeSession flips the revoked flag for token.
// Returns ErrNotFound if no session has this token.
func (s *SQLiteStorage) RevokeSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE admin_sessions SET revoked = 1 WHERE token_hash = ?",
		HashToken(token),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", classify(err))
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

func scanSession(row *sql.Row) (*AdminSession, error) {
	var (
		sess          AdminSession
		codeExpiresAt sql.NullInt64
		codeUsedAt    sql.NullInt64
		createdAt     int64
		expiresAt     int64
	)
	err := row.Scan(&sess.ID, &sess.TokenHash, &sess.Email, &sess.CodeHash,
		&codeExpiresAt, &codeUsedAt, &createdAt, &expiresAt, &sess.Revoked)
	if err != nil {
		return nil, err
	}

	sess.CodeExpiresAt = timePtr(codeExpiresAt)
	sess.CodeUsedAt = timePtr(codeUsedAt)
	sess.CreatedAt = fromMillis(createdAt)
	sess.ExpiresAt = fromMillis(expiresAt)
	return &sess, nil
}
