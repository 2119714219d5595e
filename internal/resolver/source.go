package resolver

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/callviz-dev/callviz/internal/parser"
	"github.com/callviz-dev/callviz/internal/scope"
)

// maxNestingDepth bounds the outward walk from a reference site; deeper
// nesting than this is treated as unattributable.
const maxNestingDepth = 32

// Source resolves methods and references against a parsed source index.
// All indexes are built once at construction; queries are read-only and
// safe for concurrent use.
type Source struct {
	methods    []Method
	methodByID map[string]Method
	byFile     map[string][]Method        // file -> methods sorted by start line
	endLines   map[string]int             // method ID -> last line of the declaration
	callees    map[string]MethodSet       // method ID -> directly invoked methods
	references map[string][]ReferenceSite // method ID -> use sites
}

// NewSource indexes a parse result for resolution queries.
func NewSource(result *parser.ParseResult) *Source {
	s := &Source{
		methodByID: make(map[string]Method),
		byFile:     make(map[string][]Method),
		endLines:   make(map[string]int),
		callees:    make(map[string]MethodSet),
		references: make(map[string][]ReferenceSite),
	}

	for _, file := range result.Files {
		for _, sym := range file.Symbols {
			method := methodFromSymbol(sym)
			s.methods = append(s.methods, method)
			s.methodByID[method.ID] = method
			s.byFile[sym.File] = append(s.byFile[sym.File], method)
			s.endLines[sym.ID] = sym.EndLine
		}
	}
	for file := range s.byFile {
		methods := s.byFile[file]
		sort.Slice(methods, func(i, j int) bool {
			if methods[i].Line == methods[j].Line {
				return methods[i].ID < methods[j].ID
			}
			return methods[i].Line < methods[j].Line
		})
	}
	sort.Slice(s.methods, func(i, j int) bool { return s.methods[i].ID < s.methods[j].ID })

	lookups := buildLookups(result)
	for _, file := range result.Files {
		for _, sym := range file.Symbols {
			for _, call := range sym.Calls {
				targetID, ok := lookups.resolve(file.Path, sym, call)
				if !ok {
					continue
				}
				target, known := s.methodByID[targetID]
				if !known {
					continue
				}
				if s.callees[sym.ID] == nil {
					s.callees[sym.ID] = make(MethodSet)
				}
				s.callees[sym.ID].Add(target)
				s.references[targetID] = append(s.references[targetID], ReferenceSite{
					File: file.Path,
					Line: call.Line,
				})
			}
		}
	}
	for id := range s.references {
		sites := s.references[id]
		sort.Slice(sites, func(i, j int) bool {
			if sites[i].File == sites[j].File {
				return sites[i].Line < sites[j].Line
			}
			return sites[i].File < sites[j].File
		})
	}

	return s
}

// FindAllMethods returns every indexed method inside the boundary.
func (s *Source) FindAllMethods(ctx context.Context, b *scope.Boundary) (MethodSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(MethodSet)
	for _, method := range s.methods {
		if b.Contains(method.File) {
			out.Add(method)
		}
	}
	return out, nil
}

// FindReferences returns the use-sites of method that fall inside the boundary.
func (s *Source) FindReferences(ctx context.Context, method Method, b *scope.Boundary) ([]ReferenceSite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sites := s.references[method.ID]
	out := make([]ReferenceSite, 0, len(sites))
	for _, site := range sites {
		if b.Contains(site.File) {
			out = append(out, site)
		}
	}
	return out, nil
}

// ContainingMethod finds the nearest enclosing known method of a site by
// walking outward through the enclosing declarations, innermost first.
func (s *Source) ContainingMethod(site ReferenceSite, known MethodSet) (Method, bool) {
	enclosing := make([]Method, 0, 4)
	for _, method := range s.byFile[site.File] {
		if method.Line <= site.Line && site.Line <= s.endLine(method) {
			enclosing = append(enclosing, method)
		}
	}
	// byFile is sorted by start line, so later entries are nested deeper;
	// walk from the innermost declaration outward.
	steps := 0
	for i := len(enclosing) - 1; i >= 0; i-- {
		if steps++; steps > maxNestingDepth {
			break
		}
		if known[enclosing[i]] {
			return enclosing[i], true
		}
	}
	return Method{}, false
}

// CalleesOf returns the methods directly invoked by method's body.
func (s *Source) CalleesOf(ctx context.Context, method Method) (MethodSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(MethodSet, len(s.callees[method.ID]))
	out.Union(s.callees[method.ID])
	return out, nil
}

// MethodsNamed returns all methods with the given display name, or the
// single method whose ID matches query exactly.
func (s *Source) MethodsNamed(query string) []Method {
	if method, ok := s.methodByID[query]; ok {
		return []Method{method}
	}
	out := make([]Method, 0, 2)
	for _, method := range s.methods {
		if method.Name == query {
			out = append(out, method)
		}
	}
	return out
}

func (s *Source) endLine(method Method) int {
	if end, ok := s.endLines[method.ID]; ok && end >= method.Line {
		return end
	}
	return method.Line
}

func methodFromSymbol(sym parser.Symbol) Method {
	return Method{
		ID:   sym.ID,
		Name: sym.Name,
		File: sym.File,
		Line: sym.Line,
		Kind: sym.Kind.String(),
	}
}

// lookups indexes symbols by name at file, module and global granularity
// for call-site resolution.
type lookups struct {
	global          map[string][]string
	byFile          map[string]map[string][]string
	byFileMethods   map[string]map[string][]string
	byModule        map[string]map[string][]string
	aliasCandidates map[string]map[string][]string
}

func buildLookups(result *parser.ParseResult) lookups {
	l := lookups{
		global:        make(map[string][]string),
		byFile:        make(map[string]map[string][]string),
		byFileMethods: make(map[string]map[string][]string),
		byModule:      make(map[string]map[string][]string),
	}

	for _, file := range result.Files {
		if _, ok := l.byFile[file.Path]; !ok {
			l.byFile[file.Path] = make(map[string][]string)
			l.byFileMethods[file.Path] = make(map[string][]string)
		}
		module := moduleOf(file.Path)
		if _, ok := l.byModule[module]; !ok {
			l.byModule[module] = make(map[string][]string)
		}

		for _, sym := range file.Symbols {
			l.global[sym.Name] = append(l.global[sym.Name], sym.ID)
			l.byFile[file.Path][sym.Name] = append(l.byFile[file.Path][sym.Name], sym.ID)
			l.byModule[module][sym.Name] = append(l.byModule[module][sym.Name], sym.ID)
			if sym.Kind == parser.SymbolMethod || sym.Kind == parser.SymbolConstructor {
				l.byFileMethods[file.Path][sym.Name] = append(l.byFileMethods[file.Path][sym.Name], sym.ID)
			}
		}
	}

	l.aliasCandidates = buildAliasCandidates(result)
	return l
}

// resolve maps a call site to a unique target symbol ID. Ambiguous calls
// stay unresolved rather than guessing.
func (l lookups) resolve(sourceFile string, sourceSymbol parser.Symbol, call parser.CallSite) (string, bool) {
	callName := strings.TrimSpace(call.Name)
	if callName == "" {
		return "", false
	}

	if callIsReceiverScoped(call) {
		if id, ok := uniqueID(l.byFileMethods[sourceFile][callName]); ok {
			return id, true
		}
		if sourceSymbol.Kind == parser.SymbolMethod {
			if id, ok := uniqueID(l.byFile[sourceFile][callName]); ok {
				return id, true
			}
		}
	}

	if byName, exists := l.byFile[sourceFile]; exists {
		if id, ok := uniqueID(byName[callName]); ok {
			return id, true
		}
	}

	qualifier := primaryQualifier(call.Qualifier)
	aliasMatched := false
	if qualifier != "" {
		if byAlias := l.aliasCandidates[sourceFile]; byAlias != nil {
			if candidateFiles, exists := byAlias[qualifier]; exists {
				aliasMatched = true
				if id, ok := uniqueID(l.collectFromFiles(candidateFiles, callName)); ok {
					return id, true
				}
			}
		}
	}
	if qualifier != "" && !callIsReceiverScoped(call) && !aliasMatched {
		return "", false
	}

	if byName, exists := l.byModule[moduleOf(sourceFile)]; exists {
		if id, ok := uniqueID(byName[callName]); ok {
			return id, true
		}
	}

	return uniqueID(l.global[callName])
}

func (l lookups) collectFromFiles(files []string, callName string) []string {
	out := make([]string, 0)
	for _, file := range files {
		if byName := l.byFile[file]; byName != nil {
			out = append(out, byName[callName]...)
		}
	}
	return out
}

func buildAliasCandidates(result *parser.ParseResult) map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	allFiles := make([]string, 0, len(result.Files))
	for _, file := range result.Files {
		allFiles = append(allFiles, file.Path)
	}

	for _, source := range result.Files {
		aliases := make(map[string]string, len(source.ImportAliases)+len(source.Imports))
		for alias, target := range source.ImportAliases {
			aliases[strings.TrimSpace(alias)] = strings.TrimSpace(target)
		}
		for _, importPath := range source.Imports {
			alias := defaultAlias(importPath)
			if alias == "" {
				continue
			}
			if _, exists := aliases[alias]; !exists {
				aliases[alias] = importPath
			}
		}
		if len(aliases) == 0 {
			continue
		}

		candidates := make(map[string][]string)
		for alias, importPath := range aliases {
			matches := matchImportCandidates(source.Path, importPath, allFiles)
			if len(matches) > 0 {
				candidates[alias] = matches
			}
		}
		if len(candidates) > 0 {
			out[source.Path] = candidates
		}
	}

	return out
}

func matchImportCandidates(sourceFile, importPath string, allFiles []string) []string {
	importPath = strings.TrimSpace(strings.Trim(importPath, `"'`))
	if idx := strings.Index(importPath, "#"); idx != -1 {
		importPath = importPath[:idx]
	}
	if importPath == "" {
		return nil
	}

	matches := make([]string, 0)
	for _, target := range allFiles {
		if importMatchesFile(sourceFile, importPath, target) {
			matches = append(matches, target)
		}
	}
	sort.Strings(matches)
	return matches
}

func importMatchesFile(sourceFile, importPath, targetFile string) bool {
	targetNoExt := strings.TrimSuffix(targetFile, filepath.Ext(targetFile))
	targetDir := filepath.Dir(targetFile)
	targetBase := strings.TrimSuffix(filepath.Base(targetFile), filepath.Ext(targetFile))

	if strings.HasPrefix(importPath, ".") {
		resolved := filepath.ToSlash(filepath.Clean(filepath.Join(filepath.Dir(sourceFile), importPath)))
		return resolved == filepath.ToSlash(targetNoExt) || resolved == filepath.ToSlash(targetDir)
	}

	normalized := strings.TrimPrefix(filepath.ToSlash(strings.ReplaceAll(importPath, ".", "/")), "/")
	plain := strings.TrimPrefix(filepath.ToSlash(importPath), "/")
	for _, candidate := range []string{normalized, plain} {
		if candidate == filepath.ToSlash(targetNoExt) ||
			candidate == filepath.ToSlash(targetDir) ||
			candidate == filepath.ToSlash(targetBase) ||
			strings.HasSuffix(candidate, "/"+filepath.ToSlash(targetNoExt)) ||
			strings.HasSuffix(candidate, "/"+filepath.ToSlash(targetBase)) {
			return true
		}
	}
	return false
}

func callIsReceiverScoped(call parser.CallSite) bool {
	switch strings.TrimSpace(call.Receiver) {
	case "self", "this", "cls":
		return true
	}
	switch strings.TrimSpace(call.Qualifier) {
	case "self", "this", "cls":
		return true
	}
	return false
}

func primaryQualifier(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if idx := strings.Index(value, "."); idx != -1 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

func uniqueID(ids []string) (string, bool) {
	seen := make(map[string]bool, len(ids))
	unique := ""
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = id
	}
	if len(seen) == 1 {
		return unique, true
	}
	return "", false
}

func defaultAlias(importPath string) string {
	importPath = strings.TrimSpace(strings.Trim(importPath, `"'`))
	if importPath == "" {
		return ""
	}
	if idx := strings.Index(importPath, "#"); idx != -1 {
		importPath = importPath[:idx]
	}
	segments := strings.FieldsFunc(importPath, func(r rune) bool { return r == '/' || r == '.' })
	if len(segments) == 0 {
		return ""
	}
	return strings.TrimSpace(segments[len(segments)-1])
}

func moduleOf(file string) string {
	dir := filepath.Dir(file)
	if dir == "." {
		return "root"
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	return parts[0]
}
