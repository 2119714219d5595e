package languages

import (
	"context"
	"strings"

	"github.com/callviz-dev/callviz/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// JavaParser implements parsing for Java source files
type JavaParser struct {
	parser *sitter.Parser
}

// NewJavaParser creates a new Java parser
func NewJavaParser() *JavaParser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &JavaParser{parser: p}
}

func (j *JavaParser) Language() string {
	return "java"
}

func (j *JavaParser) Extensions() []string {
	return []string{".java"}
}

func (j *JavaParser) Parse(filename string, content []byte) (*parser.FileSymbols, error) {
	tree, err := j.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileSymbols{
		Path:          filename,
		Language:      "java",
		Symbols:       make([]parser.Symbol, 0),
		Imports:       make([]string, 0),
		ImportAliases: make(map[string]string),
	}

	root := tree.RootNode()
	j.extractSymbols(root, content, result)

	return result, nil
}

func (j *JavaParser) extractSymbols(node *sitter.Node, content []byte, result *parser.FileSymbols) {
	switch node.Type() {
	case "method_declaration":
		if sym := j.extractCallable(node, content, parser.SymbolMethod); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}

	case "constructor_declaration":
		if sym := j.extractCallable(node, content, parser.SymbolConstructor); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}

	case "import_declaration":
		if importPath := j.readImport(node, content); importPath != "" {
			result.Imports = append(result.Imports, importPath)
			if alias := lastDotSegment(importPath); alias != "" {
				result.ImportAliases[alias] = importPath
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		j.extractSymbols(node.Child(i), content, result)
	}
}

func (j *JavaParser) extractCallable(node *sitter.Node, content []byte, kind parser.SymbolKind) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      kind,
		Signature: j.buildSignature(node, content),
		Line:      int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Calls:     j.extractCalls(node.ChildByFieldName("body"), content),
	}
}

func (j *JavaParser) buildSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	paramsNode := node.ChildByFieldName("parameters")
	typeNode := node.ChildByFieldName("type")

	sig := ""
	if typeNode != nil {
		sig = typeNode.Content(content) + " "
	}
	if nameNode != nil {
		sig += nameNode.Content(content)
	}
	if paramsNode != nil {
		sig += paramsNode.Content(content)
	}
	return strings.TrimSpace(sig)
}

func (j *JavaParser) extractCalls(bodyNode *sitter.Node, content []byte) []parser.CallSite {
	if bodyNode == nil {
		return nil
	}

	calls := make([]parser.CallSite, 0)
	j.collectCalls(bodyNode, content, &calls)
	return calls
}

func (j *JavaParser) collectCalls(node *sitter.Node, content []byte, calls *[]parser.CallSite) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "method_invocation":
		nameNode := node.ChildByFieldName("name")
		if nameNode != nil {
			callSite := parser.CallSite{
				Name:  nameNode.Content(content),
				Line:  int(node.StartPoint().Row) + 1,
				Arity: countNamedChildren(node.ChildByFieldName("arguments")),
				Raw:   strings.TrimSpace(nameNode.Content(content)),
			}
			if objectNode := node.ChildByFieldName("object"); objectNode != nil {
				qualifier := strings.TrimSpace(objectNode.Content(content))
				callSite.Qualifier = qualifier
				callSite.Receiver = qualifier
			}
			*calls = append(*calls, callSite)
		}

	case "object_creation_expression":
		// new Foo(...) counts as a call to Foo's constructor
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			qualifier, name := splitQualifiedName(typeNode.Content(content))
			if name != "" {
				*calls = append(*calls, parser.CallSite{
					Name:      name,
					Qualifier: qualifier,
					Line:      int(node.StartPoint().Row) + 1,
					Arity:     countNamedChildren(node.ChildByFieldName("arguments")),
					Raw:       strings.TrimSpace(typeNode.Content(content)),
				})
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		j.collectCalls(node.Child(i), content, calls)
	}
}

func (j *JavaParser) readImport(node *sitter.Node, content []byte) string {
	raw := strings.TrimSpace(node.Content(content))
	raw = strings.TrimPrefix(raw, "import")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ";")
	raw = strings.TrimPrefix(raw, "static ")
	return strings.TrimSpace(raw)
}

func lastDotSegment(path string) string {
	segments := strings.Split(path, ".")
	last := strings.TrimSpace(segments[len(segments)-1])
	if last == "*" {
		return ""
	}
	return last
}
