package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipico/admin-gate/internal/scope"
)

// failingDirectory returns err for every lookup.
type failingDirectory struct{ err error }

func (f failingDirectory) Emails(context.Context, scope.Scope) (EmailSet, error) {
	return nil, f.err
}

func TestAggregatorAccessStatic(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(NewStatic(map[scope.Scope][]string{
		scope.Admin:       {"root@example.org"},
		scope.Approvals:   {"root@example.org", "irb@example.org"},
		scope.Updates:     {"editor@example.org"},
		scope.Coordinator: {"coordinator@example.org"},
	}))
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		want  scope.Access
	}{
		{"unknown email", "stranger@example.org", scope.Access{}},
		{"empty email", "", scope.Access{}},
		{"updates only", "editor@example.org", scope.Access{Updates: true}},
		{"admin and approvals", "ROOT@example.org ", scope.Access{Admin: true, Approvals: true}},
		{"coordinator", "coordinator@example.org", scope.Access{Coordinator: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.Access(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregatorAccessStore(t *testing.T) {
	t.Parallel()
	d, s := newSQLiteDirectory(t)
	ctx := context.Background()

	require.NoError(t, s.AddDirectoryEntry(ctx, "updates", "editor@example.org"))
	require.NoError(t, s.AddDirectoryEntry(ctx, "approvals", "editor@example.org"))

	agg := NewAggregator(d)

	got, err := agg.Access(ctx, "Editor@example.org")
	require.NoError(t, err)
	assert.Equal(t, scope.Access{Approvals: true, Updates: true}, got)

	got, err = agg.Access(ctx, "nobody@example.org")
	require.NoError(t, err)
	assert.Equal(t, scope.Access{}, got)
}

func TestAggregatorAccessError(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	agg := NewAggregator(failingDirectory{err: boom})

	_, err := agg.Access(context.Background(), "a@example.org")
	assert.ErrorIs(t, err, boom)
}
