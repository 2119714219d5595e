package scope

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/callviz-dev/callviz/internal/ignore"
)

func TestSelectionLabels(t *testing.T) {
	cases := map[string]Selection{
		"Whole project (test files included)": {Kind: KindProjectWithTests},
		"Whole project (test files excluded)": {Kind: KindProjectWithoutTests},
		"Module [core]":                       {Kind: KindModule, Module: "core"},
		"Directory [internal/api]":            {Kind: KindDirectory, Directory: "internal/api"},
	}
	for want, sel := range cases {
		require.Equal(t, want, sel.Label())
	}
}

func TestBoundaryContains(t *testing.T) {
	b := &Boundary{Roots: []string{"svc"}, IncludeTests: true}
	require.True(t, b.Contains("svc/handler.go"))
	require.False(t, b.Contains("svcother/handler.go"))
	require.False(t, b.Contains("lib/util.go"))

	all := &Boundary{Roots: []string{"."}, IncludeTests: false}
	require.True(t, all.Contains("lib/util.go"))
	require.False(t, all.Contains("lib/util_test.go"), "test files excluded")

	var empty *Boundary
	require.True(t, empty.Empty())
	require.False(t, empty.Contains("anything.go"))
}

func TestIsTestFile(t *testing.T) {
	require.True(t, IsTestFile("pkg/foo_test.go"))
	require.True(t, IsTestFile("src/FooTest.java"))
	require.True(t, IsTestFile("src/FooTests.java"))
	require.True(t, IsTestFile("pkg/test_foo.py"))
	require.True(t, IsTestFile("pkg/foo_test.py"))
	require.False(t, IsTestFile("pkg/foo.go"))
	require.False(t, IsTestFile("pkg/latest.py"))
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestModulesDiscovery(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":               "module example.com/root\n",
		"services/api/pom.xml": "<project/>",
		"tools/pyproject.toml": "[project]\n",
	})

	modules, err := NewResolver(root).Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 3)

	names := make(map[string]string)
	for _, m := range modules {
		names[m.Name] = m.Dir
	}
	require.Equal(t, ".", names["example.com/root"], "go.mod module path wins over directory name")
	require.Equal(t, "services/api", names["api"])
	require.Equal(t, "tools", names["tools"])
}

func TestResolveProjectScopes(t *testing.T) {
	root := writeTree(t, map[string]string{"go.mod": "module example.com/root\n"})
	r := NewResolver(root)

	b, err := r.Resolve(context.Background(), Selection{Kind: KindProjectWithTests})
	require.NoError(t, err)
	require.Equal(t, []string{"."}, b.Roots)
	require.True(t, b.IncludeTests)

	b, err = r.Resolve(context.Background(), Selection{Kind: KindProjectWithoutTests})
	require.NoError(t, err)
	require.False(t, b.Empty())
	require.False(t, b.IncludeTests)
}

func TestResolveModule(t *testing.T) {
	root := writeTree(t, map[string]string{
		"svc/go.mod": "module example.com/svc\n",
	})
	r := NewResolver(root)

	b, err := r.Resolve(context.Background(), Selection{Kind: KindModule, Module: "example.com/svc"})
	require.NoError(t, err)
	require.Equal(t, []string{"svc"}, b.Roots)

	b, err = r.Resolve(context.Background(), Selection{Kind: KindModule, Module: "gone"})
	require.NoError(t, err)
	require.True(t, b.Empty(), "stale module name resolves to an empty boundary")
}

func TestResolveDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"svc/main.go": "package main\n"})
	r := NewResolver(root)

	b, err := r.Resolve(context.Background(), Selection{Kind: KindDirectory, Directory: "svc"})
	require.NoError(t, err)
	require.Equal(t, []string{"svc"}, b.Roots)
	require.True(t, b.IncludeTests)

	for _, dir := range []string{"", "   ", "missing", "../outside"} {
		b, err = r.Resolve(context.Background(), Selection{Kind: KindDirectory, Directory: dir})
		require.NoError(t, err)
		require.True(t, b.Empty(), "directory %q must resolve to an empty boundary", dir)
	}
}

func TestSourceFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":           "package main\n",
		"util_test.go":      "package main\n",
		"vendor/dep.go":     "package dep\n",
		"docs/readme.md":    "hi\n",
		"svc/handler.go":    "package svc\n",
		"svc/inner/deep.go": "package inner\n",
	})
	r := NewResolver(root)
	matcher := ignore.NewMatcher(nil)

	files, err := r.SourceFiles(context.Background(),
		&Boundary{Roots: []string{"."}, IncludeTests: false},
		[]string{".go"}, matcher)
	require.NoError(t, err)
	require.Equal(t, []string{"main.go", "svc/handler.go", "svc/inner/deep.go"}, files)

	files, err = r.SourceFiles(context.Background(),
		&Boundary{Roots: []string{"svc"}, IncludeTests: true},
		[]string{".go"}, matcher)
	require.NoError(t, err)
	require.Equal(t, []string{"svc/handler.go", "svc/inner/deep.go"}, files)

	files, err = r.SourceFiles(context.Background(), &Boundary{}, []string{".go"}, matcher)
	require.NoError(t, err)
	require.Empty(t, files)
}
