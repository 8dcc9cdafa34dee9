// Package directory resolves which email addresses hold each administrative scope.
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sipico/admin-gate/internal/scope"
	"github.com/sipico/admin-gate/internal/storage"
)

// Directory returns the set of emails authorized for a scope.
// An empty set means no one is authorized; it is not an error.
type Directory interface {
	Emails(ctx context.Context, s scope.Scope) (EmailSet, error)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseList splits a comma or whitespace separated list of emails.
// Entries are normalized and empty entries dropped.
func ParseList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if e := NormalizeEmail(f); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// EmailSet is a set of normalized email addresses.
type EmailSet map[string]struct{}

// NewEmailSet builds a set from raw emails, normalizing each one.
func NewEmailSet(emails ...string) EmailSet {
	set := make(EmailSet, len(emails))
	for _, e := range emails {
		if n := NormalizeEmail(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether email (normalized first) is in the set.
func (s EmailSet) Contains(email string) bool {
	_, ok := s[NormalizeEmail(email)]
	return ok
}

// Sorted returns the members in lexical order.
func (s EmailSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Static is a Directory built once from configuration.
type Static struct {
	byScope map[scope.Scope]EmailSet
}

// NewStatic creates a Static directory from per-scope email lists.
// Keys other than the four concrete scopes are ignored.
func NewStatic(lists map[scope.Scope][]string) *Static {
	d := &Static{byScope: make(map[scope.Scope]EmailSet, len(scope.All))}
	for _, s := range scope.All {
		d.byScope[s] = NewEmailSet(lists[s]...)
	}
	return d
}

// Emails returns the configured set for s. Any yields the union of all scopes.
func (d *Static) Emails(_ context.Context, s scope.Scope) (EmailSet, error) {
	if s == scope.Any {
		union := make(EmailSet)
		for _, sc := range scope.All {
			for e := range d.byScope[sc] {
				union[e] = struct{}{}
			}
		}
		return union, nil
	}

	set := make(EmailSet, len(d.byScope[s]))
	for e := range d.byScope[s] {
		set[e] = struct{}{}
	}
	return set, nil
}

// Store is a Directory backed by the directory_entries table.
// Grants added or removed there take effect on the next lookup.
type Store struct {
	store   storage.DirectoryStore
	timeout time.Duration
}

// NewStore creates a Store directory. Every lookup is bounded by timeout.
func NewStore(store storage.DirectoryStore, timeout time.Duration) *Store {
	return &Store{store: store, timeout: timeout}
}

// Emails queries the store for s. Any yields the union of all scopes.
func (d *Store) Emails(ctx context.Context, s scope.Scope) (EmailSet, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	scopes := []string{s.String()}
	if s == scope.Any {
		scopes = scopeNames(scope.All)
	}

	emails, err := d.store.DirectoryEmails(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("directory lookup for %s: %w", s, err)
	}
	return NewEmailSet(emails...), nil
}

// Scopes returns every scope granted to email with a single query.
func (d *Store) Scopes(ctx context.Context, email string) ([]scope.Scope, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.store.DirectoryScopes(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("directory scopes for %s: %w", NormalizeEmail(email), err)
	}

	out := make([]scope.Scope, 0, len(raw))
	for _, r := range raw {
		if s := scope.Scope(r); s.Valid() && s != scope.Any {
			out = append(out, s)
		}
	}
	return out, nil
}

func scopeNames(scopes []scope.Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = s.String()
	}
	return out
}
