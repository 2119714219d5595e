package parser

// SymbolKind represents the type of code symbol
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolMethod
	SymbolConstructor
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "func"
	case SymbolMethod:
		return "method"
	case SymbolConstructor:
		return "ctor"
	default:
		return "unknown"
	}
}

// CallSite captures a function/method invocation discovered inside a symbol body.
type CallSite struct {
	Name      string
	Qualifier string
	Receiver  string
	Arity     int
	Line      int
	Raw       string
}

// Symbol represents a callable unit (function, method, constructor).
// Line and EndLine delimit the full declaration so enclosing-symbol
// lookups can walk outward from any source location.
type Symbol struct {
	ID        string
	Name      string
	Kind      SymbolKind
	Signature string // e.g., "func(ctx context.Context, id string) (*User, error)"
	File      string // relative file path
	Line      int    // first line of the declaration
	EndLine   int    // last line of the declaration body
	Calls     []CallSite
}

// FileSymbols holds all symbols extracted from a single file
type FileSymbols struct {
	Path          string
	Language      string
	Symbols       []Symbol
	Imports       []string          // imported modules/packages
	ImportAliases map[string]string // alias -> import target
}

// ParseIssue captures non-fatal parser warnings/errors encountered while scanning files.
type ParseIssue struct {
	File     string
	Language string
	Severity string // warning | error
	Message  string
}

// ParseResult holds the complete parse result for one analysis scope
type ParseResult struct {
	Files    []FileSymbols
	RootPath string
	Issues   []ParseIssue
}
