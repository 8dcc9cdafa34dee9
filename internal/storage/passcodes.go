package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreatePasscode stores a hashed one-time code. p.ID is filled in.
func (s *SQLiteStorage) CreatePasscode(ctx context.Context, p *Passcode) error {
	if p.Email == "" {
		return errors.New("email required")
	}
	if p.CodeHash == "" {
		return errors.New("code hash required")
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO passcodes (email, code_hash, expires_at, created_at) VALUES (?, ?, ?, ?)",
		p.Email, p.CodeHash, toMillis(p.ExpiresAt), toMillis(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create passcode: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}

	p.ID = id
	return nil
}

// LatestPasscode returns the most recently issued passcode for email,
// whether or not it is still redeemable. Older codes are superseded and never returned.
// Returns ErrNotFound if none was ever issued.
func (s *SQLiteStorage) LatestPasscode(ctx context.Context, email string) (*Passcode, error) {
	var (
		p         Passcode
		expiresAt int64
		usedAt    sql.NullInt64
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, code_hash, expires_at, used_at, attempts, created_at
		 FROM passcodes WHERE email = ? ORDER BY id DESC LIMIT 1`,
		email,
	).Scan(&p.ID, &p.Email, &p.CodeHash, &expiresAt, &usedAt, &p.Attempts, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest passcode: %w", classify(err))
	}

	p.ExpiresAt = fromMillis(expiresAt)
	p.UsedAt = timePtr(usedAt)
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// ClaimPasscodeAttempt counts one redemption attempt against the passcode before its
// code is compared. Returns ErrPasscodeConsumed once MaxPasscodeAttempts have been
// claimed or the code was already used.
func (s *SQLiteStorage) ClaimPasscodeAttempt(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE passcodes SET attempts = attempts + 1 WHERE id = ? AND used_at IS NULL AND attempts < ?",
		id, MaxPasscodeAttempts,
	)
	if err != nil {
		return fmt.Errorf("failed to claim passcode attempt: %w", classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrPasscodeConsumed
	}
	return nil
}

// DiscardPasscode deletes a passcode that was never delivered, so the previous code
// for the same email becomes the newest again.
func (s *SQLiteStorage) DiscardPasscode(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM passcodes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to discard passcode: %w", classify(err))
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

// MarkPasscodeUsedIfUnset sets used_at only if it is currently NULL, the code has
// not expired at usedAt, it still has attempts left and no newer code was issued
// for the same email. Returns ErrPasscodeConsumed when the condition fails,
// which is what the losing side of a concurrent redemption observes.
func (s *SQLiteStorage) MarkPasscodeUsedIfUnset(ctx context.Context, id int64, usedAt time.Time) error {
	return markPasscodeUsed(ctx, s.db, id, usedAt)
}

func markPasscodeUsed(ctx context.Context, db execer, id int64, usedAt time.Time) error {
	ms := toMillis(usedAt)
	result, err := db.ExecContext(ctx,
		`UPDATE passcodes SET used_at = ?
		 WHERE id = ? AND used_at IS NULL AND expires_at > ? AND attempts <= ?
		   AND id = (SELECT MAX(newer.id) FROM passcodes AS newer WHERE newer.email = passcodes.email)`,
		ms, id, ms, MaxPasscodeAttempts,
	)
	if err != nil {
		return fmt.Errorf("failed to mark passcode used: %w", classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrPasscodeConsumed
	}
	return nil
}

// RedeemPasscode marks the passcode used and inserts the session in one transaction.
// sess.CreatedAt is the redemption time and is recorded as the code's used_at.
// Either both writes commit or neither does, so a failed insert leaves the code redeemable
// and a lost race never creates a session.
func (s *SQLiteStorage) RedeemPasscode(ctx context.Context, passcodeID int64, token string, sess *AdminSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck

	usedAt := sess.CreatedAt
	if err := markPasscodeUsed(ctx, tx, passcodeID, usedAt); err != nil {
		return err
	}

	sess.CodeUsedAt = &usedAt
	if err := insertSession(ctx, tx, token, sess); err != nil {
		sess.CodeUsedAt = nil
		return err
	}

	if err := tx.Commit(); err != nil {
		sess.CodeUsedAt = nil
		return fmt.Errorf("failed to commit redemption: %w", classify(err))
	}
	return nil
}
