package languages

import "github.com/callviz-dev/callviz/internal/parser"

// NewDefaultRegistry creates a registry with all supported language parsers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoParser())
	r.Register(NewJavaParser())
	r.Register(NewPythonParser())

	return r
}
