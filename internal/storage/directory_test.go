package storage

import (
	"context"
	"errors"
	"testing"
)

func TestDirectoryEntries(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	grants := []struct{ scope, email string }{
		{"admin", "root@example.org"},
		{"approvals", "root@example.org"},
		{"approvals", "irb@example.org"},
		{"updates", "editor@example.org"},
	}
	for _, g := range grants {
		if err := s.AddDirectoryEntry(ctx, g.scope, g.email); err != nil {
			t.Fatalf("AddDirectoryEntry(%s, %s) failed: %v", g.scope, g.email, err)
		}
	}

	entries, err := s.ListDirectoryEntries(ctx)
	if err != nil {
		t.Fatalf("ListDirectoryEntries failed: %v", err)
	}
	if len(entries) != len(grants) {
		t.Fatalf("expected %d entries, got %d", len(grants), len(entries))
	}
	if entries[0].Scope != "admin" || entries[0].Email != "root@example.org" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}

	t.Run("duplicate", func(t *testing.T) {
		err := s.AddDirectoryEntry(ctx, "admin", "root@example.org")
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("emails by scope", func(t *testing.T) {
		emails, err := s.DirectoryEmails(ctx, "approvals")
		if err != nil {
			t.Fatalf("DirectoryEmails failed: %v", err)
		}
		want := []string{"irb@example.org", "root@example.org"}
		if len(emails) != len(want) {
			t.Fatalf("got %v, want %v", emails, want)
		}
		for i := range want {
			if emails[i] != want[i] {
				t.Errorf("emails[%d] = %s, want %s", i, emails[i], want[i])
			}
		}
	})

	t.Run("emails across scopes are distinct", func(t *testing.T) {
		emails, err := s.DirectoryEmails(ctx, "admin", "approvals", "updates")
		if err != nil {
			t.Fatalf("DirectoryEmails failed: %v", err)
		}
		if len(emails) != 3 {
			t.Errorf("expected 3 distinct emails, got %v", emails)
		}
	})

	t.Run("no scopes", func(t *testing.T) {
		emails, err := s.DirectoryEmails(ctx)
		if err != nil {
			t.Fatalf("DirectoryEmails failed: %v", err)
		}
		if emails == nil || len(emails) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", emails)
		}
	})

	t.Run("scopes by email", func(t *testing.T) {
		scopes, err := s.DirectoryScopes(ctx, "root@example.org")
		if err != nil {
			t.Fatalf("DirectoryScopes failed: %v", err)
		}
		if len(scopes) != 2 || scopes[0] != "admin" || scopes[1] != "approvals" {
			t.Errorf("unexpected scopes %v", scopes)
		}

		none, err := s.DirectoryScopes(ctx, "stranger@example.org")
		if err != nil {
			t.Fatalf("DirectoryScopes failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no scopes, got %v", none)
		}
	})
}

func TestRemoveDirectoryEntry(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.AddDirectoryEntry(ctx, "coordinator", "c@example.org"); err != nil {
		t.Fatalf("AddDirectoryEntry failed: %v", err)
	}
	if err := s.RemoveDirectoryEntry(ctx, "coordinator", "c@example.org"); err != nil {
		t.Fatalf("RemoveDirectoryEntry failed: %v", err)
	}
	if err := s.RemoveDirectoryEntry(ctx, "coordinator", "c@example.org"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	emails, err := s.DirectoryEmails(ctx, "coordinator")
	if err != nil {
		t.Fatalf("DirectoryEmails failed: %v", err)
	}
	if len(emails) != 0 {
		t.Errorf("expected no emails after removal, got %v", emails)
	}
}

func TestAddDirectoryEntryValidation(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.AddDirectoryEntry(ctx, "", "a@example.org"); err == nil {
		t.Error("expected error for empty scope")
	}
	if err := s.AddDirectoryEntry(ctx, "admin", ""); err == nil {
		t.Error("expected error for empty email")
	}
}
