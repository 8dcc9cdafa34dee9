// Package scope defines the closed set of administrative capabilities an email may hold.
package scope

import "strings"

// Scope is one independent administrative capability.
type Scope string

const (
	// Admin grants site-wide administration.
	Admin Scope = "admin"
	// Approvals grants study-approval review.
	Approvals Scope = "approvals"
	// Updates grants study-update dispatch.
	Updates Scope = "updates"
	// Coordinator grants coordinator functions.
	Coordinator Scope = "coordinator"
	// Any is satisfied by holding at least one of the concrete scopes.
	Any Scope = "any"
)

// All lists the concrete scopes in a stable order. Any is not included.
var All = []Scope{Admin, Approvals, Updates, Coordinator}

// Names returns the string form of All.
func Names() []string {
	names := make([]string, len(All))
	for i, s := range All {
		names[i] = string(s)
	}
	return names
}

// Normalize maps untrusted input onto the enumeration.
// Unrecognized or empty input becomes Any; it never yields an undefined scope.
func Normalize(raw string) Scope {
	switch s := Scope(strings.ToLower(strings.TrimSpace(raw))); s {
	case Admin, Approvals, Updates, Coordinator, Any:
		return s
	default:
		return Any
	}
}

// Valid reports whether s is a member of the enumeration (including Any).
func (s Scope) Valid() bool {
	switch s {
	case Admin, Approvals, Updates, Coordinator, Any:
		return true
	}
	return false
}

// Label returns the human-readable name used in error messages.
func (s Scope) Label() string {
	switch s {
	case Admin:
		return "site admin"
	case Approvals:
		return "study approvals"
	case Updates:
		return "study updates"
	case Coordinator:
		return "coordinator"
	default:
		return "admin"
	}
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	return string(s)
}

// Access holds the membership of one email in each concrete scope.
type Access struct {
	Admin       bool `json:"admin"`
	Approvals   bool `json:"approvals"`
	Updates     bool `json:"updates"`
	Coordinator bool `json:"coordinator"`
}

// Has reports whether the access set satisfies s. Any is satisfied by any concrete scope.
// Admin is not treated as a superset here; callers decide that.
func (a Access) Has(s Scope) bool {
	switch s {
	case Admin:
		return a.Admin
	case Approvals:
		return a.Approvals
	case Updates:
		return a.Updates
	case Coordinator:
		return a.Coordinator
	case Any:
		return a.Admin || a.Approvals || a.Updates || a.Coordinator
	}
	return false
}

// Grant returns a copy of a with s set. Any and unknown scopes are ignored.
func (a Access) Grant(s Scope) Access {
	switch s {
	case Admin:
		a.Admin = true
	case Approvals:
		a.Approvals = true
	case Updates:
		a.Updates = true
	case Coordinator:
		a.Coordinator = true
	}
	return a
}

// Merge returns the union of a and b.
func (a Access) Merge(b Access) Access {
	return Access{
		Admin:       a.Admin || b.Admin,
		Approvals:   a.Approvals || b.Approvals,
		Updates:     a.Updates || b.Updates,
		Coordinator: a.Coordinator || b.Coordinator,
	}
}
