package graph

import "github.com/callviz-dev/callviz/internal/resolver"

// CalleeCallers maps each callee method to the set of methods calling it.
// It is the contract between the traversal layer and the graph builder.
type CalleeCallers map[resolver.Method]resolver.MethodSet

// Merge folds src into dst by key-wise set union, never by overwrite.
func (dst CalleeCallers) Merge(src CalleeCallers) {
	for callee, callers := range src {
		if existing, ok := dst[callee]; ok {
			existing.Union(callers)
			continue
		}
		merged := make(resolver.MethodSet, len(callers))
		merged.Union(callers)
		dst[callee] = merged
	}
}

// BuildFromCallers materializes a callee->callers relation into a graph:
// one node per distinct method, one caller->callee edge per ordered pair.
func BuildFromCallers(relation CalleeCallers) *Graph {
	g := New()
	for callee, callers := range relation {
		g.AddNode(callee)
		for caller := range callers {
			g.AddNode(caller)
			g.AddEdge(caller, callee)
		}
	}
	return g
}
