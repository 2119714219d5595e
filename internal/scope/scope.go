package scope

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind enumerates the analysis scope choices.
type Kind int

const (
	KindProjectWithTests Kind = iota
	KindProjectWithoutTests
	KindModule
	KindDirectory
)

// Selection is one user-chosen analysis scope.
type Selection struct {
	Kind      Kind
	Module    string // module name, KindModule only
	Directory string // directory path, KindDirectory only
}

// Label returns the presentation label for a selection.
func (s Selection) Label() string {
	switch s.Kind {
	case KindProjectWithTests:
		return "Whole project (test files included)"
	case KindProjectWithoutTests:
		return "Whole project (test files excluded)"
	case KindModule:
		return fmt.Sprintf("Module [%s]", s.Module)
	case KindDirectory:
		return fmt.Sprintf("Directory [%s]", s.Directory)
	default:
		return "Unknown scope"
	}
}

// Module is a discovered project module.
type Module struct {
	Name string
	Dir  string // relative to the project root, "." for the root module
}

// Boundary bounds one analysis run: a set of content roots relative to the
// project root, plus whether test files participate.
type Boundary struct {
	Roots        []string
	IncludeTests bool
}

// Empty reports whether the boundary contributes no source roots.
func (b *Boundary) Empty() bool {
	return b == nil || len(b.Roots) == 0
}

// Contains reports whether relPath falls inside the boundary.
func (b *Boundary) Contains(relPath string) bool {
	if b.Empty() {
		return false
	}
	if !b.IncludeTests && IsTestFile(relPath) {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	for _, root := range b.Roots {
		if root == "." || relPath == root || strings.HasPrefix(relPath, root+"/") {
			return true
		}
	}
	return false
}

// IsTestFile reports whether relPath looks like a test source file.
func IsTestFile(relPath string) bool {
	base := filepath.Base(relPath)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.HasSuffix(base, "Test.java"), strings.HasSuffix(base, "Tests.java"):
		return true
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	case strings.HasSuffix(base, "_test.py"):
		return true
	}
	return false
}
