package scope

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/callviz-dev/callviz/internal/ignore"
	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// moduleMarkers identify module roots across supported ecosystems.
var moduleMarkers = []string{"go.mod", "pom.xml", "package.json", "pyproject.toml"}

// Resolver maps scope selections onto concrete boundaries. It holds no
// per-run state: every Resolve call recomputes from the filesystem, since
// the selection and the module set may change between runs.
type Resolver struct {
	fs   afs.Service
	root string
}

// NewResolver creates a scope resolver anchored at the project root.
func NewResolver(root string) *Resolver {
	return &Resolver{fs: afs.New(), root: root}
}

// Modules enumerates the project's modules, sorted by name.
func (r *Resolver) Modules(ctx context.Context) ([]Module, error) {
	found := make(map[string]Module)
	visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		for _, marker := range moduleMarkers {
			if info.Name() != marker {
				continue
			}
			dir := parent
			if dir == "" {
				dir = "."
			}
			if _, seen := found[dir]; !seen {
				found[dir] = Module{Name: r.moduleName(dir, info.Name()), Dir: filepath.ToSlash(dir)}
			}
			break
		}
		return true, nil
	}
	if err := r.fs.Walk(ctx, r.root, visitor); err != nil {
		return nil, err
	}

	modules := make([]Module, 0, len(found))
	for _, module := range found {
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Name == modules[j].Name {
			return modules[i].Dir < modules[j].Dir
		}
		return modules[i].Name < modules[j].Name
	})
	return modules, nil
}

func (r *Resolver) moduleName(dir, marker string) string {
	if marker == "go.mod" {
		if content, err := os.ReadFile(filepath.Join(r.root, dir, marker)); err == nil {
			if modPath := modfile.ModulePath(content); modPath != "" {
				return modPath
			}
		}
	}
	if dir == "." {
		return filepath.Base(r.root)
	}
	return path.Base(filepath.ToSlash(dir))
}

// Resolve maps a selection to a boundary. An unresolvable selection (blank
// or missing directory, stale module name) yields an empty boundary, not an
// error: the run then produces an empty graph.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (*Boundary, error) {
	switch sel.Kind {
	case KindProjectWithTests:
		return &Boundary{Roots: []string{"."}, IncludeTests: true}, nil

	case KindProjectWithoutTests:
		modules, err := r.Modules(ctx)
		if err != nil {
			return nil, err
		}
		roots := make([]string, 0, len(modules))
		for _, module := range modules {
			roots = append(roots, module.Dir)
		}
		if len(roots) == 0 {
			roots = []string{"."}
		}
		return &Boundary{Roots: roots, IncludeTests: false}, nil

	case KindModule:
		modules, err := r.Modules(ctx)
		if err != nil {
			return nil, err
		}
		for _, module := range modules {
			if module.Name == sel.Module {
				return &Boundary{Roots: []string{module.Dir}, IncludeTests: true}, nil
			}
		}
		return &Boundary{}, nil

	case KindDirectory:
		dir := strings.TrimSpace(sel.Directory)
		if dir == "" {
			return &Boundary{}, nil
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.root, dir)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return &Boundary{}, nil
		}
		rel, err := filepath.Rel(r.root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			return &Boundary{}, nil
		}
		// Test-file filtering for directory scope is intentionally absent.
		return &Boundary{Roots: []string{filepath.ToSlash(rel)}, IncludeTests: true}, nil
	}

	return &Boundary{}, nil
}

// SourceFiles enumerates files inside the boundary with one of the given
// extensions, honoring ignore rules. Paths are relative to the project root.
func (r *Resolver) SourceFiles(ctx context.Context, b *Boundary, exts []string, matcher *ignore.Matcher) ([]string, error) {
	if b.Empty() {
		return nil, nil
	}

	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		wanted[strings.ToLower(ext)] = true
	}

	files := make(map[string]bool)
	for _, root := range b.Roots {
		walkRoot := r.root
		if root != "." {
			walkRoot = filepath.Join(r.root, filepath.FromSlash(root))
		}
		visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			rel := path.Join(filepath.ToSlash(parent), info.Name())
			if root != "." {
				rel = path.Join(root, rel)
			}
			if matcher != nil && matcher.ShouldIgnore(rel, info.IsDir()) {
				return false, nil
			}
			if info.IsDir() {
				return true, nil
			}
			if !wanted[strings.ToLower(filepath.Ext(info.Name()))] {
				return true, nil
			}
			if !b.Contains(rel) {
				return true, nil
			}
			files[rel] = true
			return true, nil
		}
		if err := r.fs.Walk(ctx, walkRoot, visitor); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(files))
	for file := range files {
		out = append(out, file)
	}
	sort.Strings(out)
	return out, nil
}
