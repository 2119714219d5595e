package resolver

import (
	"context"

	"github.com/callviz-dev/callviz/internal/scope"
)

// Method is an opaque handle to one callable unit in the analyzed codebase.
// The ID is stable and unique; the rest is presentation metadata. Methods
// are value types and safe to use as map keys.
type Method struct {
	ID   string
	Name string
	File string
	Line int
	Kind string
}

// MethodSet is a set of methods.
type MethodSet map[Method]bool

// Add inserts a method into the set.
func (s MethodSet) Add(m Method) { s[m] = true }

// Union adds every method of other into the set.
func (s MethodSet) Union(other MethodSet) {
	for m := range other {
		s[m] = true
	}
}

// ReferenceSite is a syntactic location where a method is mentioned.
type ReferenceSite struct {
	File string
	Line int
}

// Resolver exposes the symbol-resolution capabilities the call-graph engine
// consumes. Implementations must support repeated, independent per-method
// queries; no call mutates shared state.
type Resolver interface {
	// FindAllMethods returns every known method inside the boundary.
	FindAllMethods(ctx context.Context, b *scope.Boundary) (MethodSet, error)

	// FindReferences returns all use-sites of method inside the boundary.
	FindReferences(ctx context.Context, method Method, b *scope.Boundary) ([]ReferenceSite, error)

	// ContainingMethod walks outward from a reference site to the nearest
	// enclosing method present in known. The walk is upward-only and
	// bounded; ok is false when no enclosing known method exists (e.g. a
	// reference in top-level initialization code).
	ContainingMethod(site ReferenceSite, known MethodSet) (method Method, ok bool)

	// CalleesOf returns the methods directly invoked by method's body.
	CalleesOf(ctx context.Context, method Method) (MethodSet, error)
}
