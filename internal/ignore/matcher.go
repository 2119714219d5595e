package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultRules excludes directories that never contribute analyzable methods.
var defaultRules = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"target/",
	"__pycache__/",
}

// Matcher filters paths using gitignore semantics, with built-in defaults
// that user rules can override through negation.
type Matcher struct {
	rules *gitignore.GitIgnore
}

// NewMatcher builds a matcher from the default excludes plus user rules.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(defaultRules)+len(userRules))
	all = append(all, defaultRules...)
	all = append(all, userRules...)
	return &Matcher{rules: gitignore.CompileIgnoreLines(all...)}
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	if isDir && !strings.HasSuffix(relPath, "/") {
		relPath += "/"
	}
	return m.rules.MatchesPath(relPath)
}

// LoadRules reads gitignore-style rules that apply under root.
// A missing file contributes nothing.
func LoadRules(root string) []string {
	rules := make([]string, 0)
	for _, name := range []string{".gitignore", ".callvizignore"} {
		content, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rules = append(rules, line)
		}
	}
	return rules
}
