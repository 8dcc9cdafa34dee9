package directory

import (
	"context"

	"github.com/sipico/admin-gate/internal/scope"
)

// scopeLister is implemented by directories that can answer all scopes for one email at once.
type scopeLister interface {
	Scopes(ctx context.Context, email string) ([]scope.Scope, error)
}

// Aggregator computes the full access set of an email from a Directory.
// It never looks at sessions, so it is safe to call with just an email.
type Aggregator struct {
	dir Directory
}

// NewAggregator creates an Aggregator over dir.
func NewAggregator(dir Directory) *Aggregator {
	return &Aggregator{dir: dir}
}

// Access returns membership of email in each concrete scope.
// Unknown or empty emails yield all false; errors come only from the directory backend.
func (a *Aggregator) Access(ctx context.Context, email string) (scope.Access, error) {
	var access scope.Access

	email = NormalizeEmail(email)
	if email == "" {
		return access, nil
	}

	if lister, ok := a.dir.(scopeLister); ok {
		scopes, err := lister.Scopes(ctx, email)
		if err != nil {
			return scope.Access{}, err
		}
		for _, s := range scopes {
			access = access.Grant(s)
		}
		return access, nil
	}

	for _, s := range scope.All {
		set, err := a.dir.Emails(ctx, s)
		if err != nil {
			return scope.Access{}, err
		}
		if set.Contains(email) {
			access = access.Grant(s)
		}
	}
	return access, nil
}
