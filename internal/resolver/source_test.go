package resolver

import (
	"context"
	"testing"

	"github.com/callviz-dev/callviz/internal/parser"
	"github.com/callviz-dev/callviz/internal/scope"
)

func buildResult(files ...parser.FileSymbols) *parser.ParseResult {
	for fi := range files {
		for si := range files[fi].Symbols {
			files[fi].Symbols[si].File = files[fi].Path
			files[fi].Symbols[si].ID = parser.StableSymbolID(files[fi].Path, files[fi].Symbols[si])
		}
	}
	return &parser.ParseResult{Files: files}
}

func symbol(name string, kind parser.SymbolKind, line, endLine int, calls ...parser.CallSite) parser.Symbol {
	return parser.Symbol{Name: name, Kind: kind, Line: line, EndLine: endLine, Calls: calls}
}

func wholeProject() *scope.Boundary {
	return &scope.Boundary{Roots: []string{"."}, IncludeTests: true}
}

func TestSourceResolvesCallsAndAmbiguityStaysUnresolved(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "a.go",
			Symbols: []parser.Symbol{
				symbol("helper", parser.SymbolFunction, 1, 3),
				symbol("run", parser.SymbolFunction, 10, 20,
					parser.CallSite{Name: "helper", Line: 11},
					parser.CallSite{Name: "onlyB", Line: 12},
					parser.CallSite{Name: "dup", Line: 13},
				),
			},
		},
		parser.FileSymbols{
			Path: "b.go",
			Symbols: []parser.Symbol{
				symbol("onlyB", parser.SymbolFunction, 3, 5),
				symbol("dup", parser.SymbolFunction, 7, 9),
			},
		},
		parser.FileSymbols{
			Path: "c.go",
			Symbols: []parser.Symbol{
				symbol("dup", parser.SymbolFunction, 5, 7),
			},
		},
	)

	src := NewSource(result)
	run := src.MethodsNamed("run")[0]

	callees, err := src.CalleesOf(context.Background(), run)
	if err != nil {
		t.Fatalf("callees: %v", err)
	}
	if len(callees) != 2 {
		t.Fatalf("expected helper and onlyB resolved, dup ambiguous, got %v", callees)
	}
	for callee := range callees {
		if callee.Name == "dup" {
			t.Fatalf("ambiguous dup must stay unresolved")
		}
	}
}

func TestSourceFindReferencesHonorsBoundary(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "lib/util.go",
			Symbols: []parser.Symbol{
				symbol("helper", parser.SymbolFunction, 1, 3),
			},
		},
		parser.FileSymbols{
			Path: "svc/main.go",
			Symbols: []parser.Symbol{
				symbol("main", parser.SymbolFunction, 5, 9,
					parser.CallSite{Name: "helper", Line: 6},
				),
			},
		},
	)

	src := NewSource(result)
	helper := src.MethodsNamed("helper")[0]

	sites, err := src.FindReferences(context.Background(), helper, wholeProject())
	if err != nil {
		t.Fatalf("find references: %v", err)
	}
	if len(sites) != 1 || sites[0].File != "svc/main.go" || sites[0].Line != 6 {
		t.Fatalf("unexpected sites: %#v", sites)
	}

	sites, err = src.FindReferences(context.Background(), helper, &scope.Boundary{Roots: []string{"lib"}, IncludeTests: true})
	if err != nil {
		t.Fatalf("find references: %v", err)
	}
	if len(sites) != 0 {
		t.Fatalf("expected no sites outside the boundary, got %#v", sites)
	}
}

func TestContainingMethodPrefersInnermost(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "nested.py",
			Symbols: []parser.Symbol{
				symbol("outer", parser.SymbolFunction, 1, 100),
				symbol("inner", parser.SymbolMethod, 10, 20),
			},
		},
	)
	src := NewSource(result)

	all, err := src.FindAllMethods(context.Background(), wholeProject())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	outer := src.MethodsNamed("outer")[0]
	inner := src.MethodsNamed("inner")[0]

	site := ReferenceSite{File: "nested.py", Line: 15}
	if got, ok := src.ContainingMethod(site, all); !ok || got != inner {
		t.Fatalf("expected inner as containing method, got %v (ok=%v)", got, ok)
	}

	onlyOuter := MethodSet{outer: true}
	if got, ok := src.ContainingMethod(site, onlyOuter); !ok || got != outer {
		t.Fatalf("expected fallback to outer, got %v (ok=%v)", got, ok)
	}

	if _, ok := src.ContainingMethod(site, MethodSet{}); ok {
		t.Fatalf("expected no containing method for an empty known set")
	}

	if _, ok := src.ContainingMethod(ReferenceSite{File: "nested.py", Line: 500}, all); ok {
		t.Fatalf("expected no containing method outside all spans")
	}
}

func TestSelfCallsResolveToReceiverScope(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "worker.py",
			Symbols: []parser.Symbol{
				symbol("reset", parser.SymbolMethod, 1, 3),
				symbol("__init__", parser.SymbolConstructor, 5, 8,
					parser.CallSite{Name: "reset", Receiver: "self", Qualifier: "self", Line: 6},
				),
			},
		},
		parser.FileSymbols{
			Path: "other.py",
			Symbols: []parser.Symbol{
				symbol("reset", parser.SymbolFunction, 1, 3),
			},
		},
	)

	src := NewSource(result)
	ctor := src.MethodsNamed("__init__")[0]

	callees, err := src.CalleesOf(context.Background(), ctor)
	if err != nil {
		t.Fatalf("callees: %v", err)
	}
	if len(callees) != 1 {
		t.Fatalf("expected exactly one resolved callee, got %v", callees)
	}
	for callee := range callees {
		if callee.File != "worker.py" {
			t.Fatalf("expected self call to stay in worker.py, got %v", callee)
		}
	}
}

func TestMethodsNamed(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "a.go",
			Symbols: []parser.Symbol{
				symbol("dup", parser.SymbolFunction, 1, 3),
			},
		},
		parser.FileSymbols{
			Path: "b.go",
			Symbols: []parser.Symbol{
				symbol("dup", parser.SymbolFunction, 1, 3),
			},
		},
	)
	src := NewSource(result)

	byName := src.MethodsNamed("dup")
	if len(byName) != 2 {
		t.Fatalf("expected 2 matches by name, got %d", len(byName))
	}

	byID := src.MethodsNamed(byName[0].ID)
	if len(byID) != 1 || byID[0] != byName[0] {
		t.Fatalf("expected exact ID lookup to return one method, got %#v", byID)
	}

	if got := src.MethodsNamed("nope"); len(got) != 0 {
		t.Fatalf("expected no matches, got %#v", got)
	}
}

func TestDirectRecursionKeepsSelfEdge(t *testing.T) {
	result := buildResult(
		parser.FileSymbols{
			Path: "rec.go",
			Symbols: []parser.Symbol{
				symbol("recurse", parser.SymbolFunction, 1, 5,
					parser.CallSite{Name: "recurse", Line: 3},
				),
			},
		},
	)
	src := NewSource(result)
	recurse := src.MethodsNamed("recurse")[0]

	callees, err := src.CalleesOf(context.Background(), recurse)
	if err != nil {
		t.Fatalf("callees: %v", err)
	}
	if len(callees) != 1 || !callees[recurse] {
		t.Fatalf("expected the method itself as callee, got %v", callees)
	}

	sites, err := src.FindReferences(context.Background(), recurse, wholeProject())
	if err != nil {
		t.Fatalf("find references: %v", err)
	}
	if len(sites) != 1 || sites[0].Line != 3 {
		t.Fatalf("expected the recursive call site, got %#v", sites)
	}
}
