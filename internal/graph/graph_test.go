package graph

import (
	"errors"
	"testing"

	"github.com/callviz-dev/callviz/internal/resolver"
)

func method(id, name string) resolver.Method {
	return resolver.Method{ID: id, Name: name, File: "main.go", Line: 1, Kind: "function"}
}

func TestAddNodeIsIdempotent(t *testing.T) {
	g := New()
	m := method("m1", "run")

	first := g.AddNode(m)
	second := g.AddNode(m)
	if first != second {
		t.Fatalf("expected the same node for repeated insertion")
	}
	if len(g.Nodes()) != 1 {
		t.Fatalf("expected 1 node, got %d", len(g.Nodes()))
	}
}

func TestAddEdgeDeduplicatesOrderedPairs(t *testing.T) {
	g := New()
	a := method("a", "caller")
	b := method("b", "callee")

	g.AddEdge(a, b)
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	if len(g.Edges()) != 2 {
		t.Fatalf("expected 2 edges for a->b and b->a, got %d", len(g.Edges()))
	}

	nodeA, err := g.GetNode("a")
	if err != nil {
		t.Fatalf("get node a: %v", err)
	}
	if len(nodeA.LeavingEdges) != 1 || len(nodeA.EnteringEdges) != 1 {
		t.Fatalf("expected one leaving and one entering edge on a, got %d/%d",
			len(nodeA.LeavingEdges), len(nodeA.EnteringEdges))
	}
}

func TestAddEdgeCreatesMissingEndpoints(t *testing.T) {
	g := New()
	g.AddEdge(method("x", "x"), method("y", "y"))
	if len(g.Nodes()) != 2 {
		t.Fatalf("expected endpoints to be created, got %d nodes", len(g.Nodes()))
	}
}

func TestGetNodeMissing(t *testing.T) {
	g := New()
	if _, err := g.GetNode("absent"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestBuildFromCallers(t *testing.T) {
	a := method("a", "a")
	b := method("b", "b")
	c := method("c", "c")

	relation := CalleeCallers{
		a: resolver.MethodSet{b: true, c: true},
		b: resolver.MethodSet{c: true},
	}

	g := BuildFromCallers(relation)
	if len(g.Nodes()) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes()))
	}
	if len(g.Edges()) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(g.Edges()))
	}

	nodeA, err := g.GetNode("a")
	if err != nil {
		t.Fatalf("get node a: %v", err)
	}
	if len(nodeA.EnteringEdges) != 2 {
		t.Fatalf("expected 2 callers of a, got %d", len(nodeA.EnteringEdges))
	}
	if len(nodeA.LeavingEdges) != 0 {
		t.Fatalf("expected no callees recorded for a, got %d", len(nodeA.LeavingEdges))
	}
}

func TestMergeUnionsCallerSets(t *testing.T) {
	a := method("a", "a")
	b := method("b", "b")
	c := method("c", "c")
	d := method("d", "d")

	dst := CalleeCallers{a: resolver.MethodSet{b: true}}
	src := CalleeCallers{
		a: resolver.MethodSet{c: true},
		d: resolver.MethodSet{b: true},
	}

	dst.Merge(src)

	if len(dst[a]) != 2 {
		t.Fatalf("expected callers of a to be unioned, got %d", len(dst[a]))
	}
	if !dst[a][b] || !dst[a][c] {
		t.Fatalf("expected both b and c as callers of a")
	}
	if len(dst[d]) != 1 || !dst[d][b] {
		t.Fatalf("expected new key d to be copied over")
	}

	// Mutating the merged copy must not leak into src.
	dst[d].Add(c)
	if src[d][c] {
		t.Fatalf("merge must copy caller sets, not alias them")
	}
}

func TestSortedNodesOrdersByNameThenID(t *testing.T) {
	g := New()
	g.AddNode(resolver.Method{ID: "2", Name: "beta"})
	g.AddNode(resolver.Method{ID: "1", Name: "beta"})
	g.AddNode(resolver.Method{ID: "3", Name: "alpha"})

	sorted := SortedNodes(g.Nodes())
	got := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	want := []string{"3", "1", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}
