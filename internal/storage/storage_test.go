package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// newTestStorage returns an in-memory storage that is closed when the test ends.
func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewCreatesFileDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "admin-gate.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", path, err)
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Reopening must not fail on the existing schema
	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	_ = s2.Close()
}

func TestPingAfterClose(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	_ = s.Close()

	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail on closed database")
	}
}

func TestCloseNilDB(t *testing.T) {
	t.Parallel()

	s := &SQLiteStorage{}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db returned %v", err)
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	a := HashToken("token-a")
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashToken("token-a") {
		t.Error("HashToken is not deterministic")
	}
	if a == HashToken("token-b") {
		t.Error("different tokens produced the same hash")
	}
}
