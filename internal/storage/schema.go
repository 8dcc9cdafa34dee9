// Package storage handles all database operations for admin-gate.
package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
// Timestamps are stored as INTEGER unix milliseconds (UTC) so that range
// predicates compare numerically.
func InitSchema(db *sql.DB) error {
	ddlStatements := []string{
		// admin_sessions table: one row per issued bearer session
		`CREATE TABLE IF NOT EXISTS admin_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token_hash TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			code_hash TEXT NOT NULL DEFAULT '',
			code_expires_at INTEGER,
			code_used_at INTEGER,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			revoked INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_admin_sessions_email ON admin_sessions(email)`,

		// passcodes table: hashed one-time codes; used_at is set exactly once
		`CREATE TABLE IF NOT EXISTS passcodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			code_hash TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			used_at INTEGER,
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_passcodes_email ON passcodes(email, id)`,

		// directory_entries table: scope membership when DIRECTORY_SOURCE=database
		`CREATE TABLE IF NOT EXISTS directory_entries (
			scope TEXT NOT NULL,
			email TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (scope, email)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_directory_entries_email ON directory_entries(email)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// MigrateSchema creates the schema and adds columns introduced after the first release.
func MigrateSchema(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return err
	}
	return addColumnIfMissing(db, "passcodes", "attempts", "INTEGER NOT NULL DEFAULT 0")
}

// addColumnIfMissing adds column to table unless it already exists.
func addColumnIfMissing(db *sql.DB, table, column, definition string) error {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}
