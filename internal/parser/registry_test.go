package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type mockParser struct {
	lang string
	exts []string
	fail bool
}

func (m mockParser) Language() string { return m.lang }

func (m mockParser) Extensions() []string { return m.exts }

func (m mockParser) Parse(filename string, content []byte) (*FileSymbols, error) {
	if m.fail {
		return nil, errors.New("boom")
	}
	return &FileSymbols{
		Path:     filename,
		Language: m.lang,
		Symbols: []Symbol{
			{
				Name:      "mock",
				Kind:      SymbolFunction,
				Signature: "func mock()",
				Line:      1,
				EndLine:   3,
			},
		},
	}, nil
}

func TestRegistryGetParserForFile(t *testing.T) {
	r := NewRegistry()
	r.Register(mockParser{lang: "mock", exts: []string{".mock"}})

	p, ok := r.GetParserForFile("demo.MOCK")
	if !ok {
		t.Fatalf("expected parser for .MOCK extension")
	}
	if p.Language() != "mock" {
		t.Fatalf("expected language mock, got %s", p.Language())
	}
}

func TestParseFileSkipsUnsupportedTypes(t *testing.T) {
	r := NewRegistry()
	r.Register(mockParser{lang: "mock", exts: []string{".mock"}})

	symbols, err := r.ParseFile(t.TempDir(), "readme.txt")
	if err != nil {
		t.Fatalf("unsupported file must be skipped silently, got %v", err)
	}
	if symbols != nil {
		t.Fatalf("expected nil symbols for unsupported file, got %#v", symbols)
	}
}

func TestParseFilesAssignsStableIDs(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.mock"), "ok")
	mustWriteFile(t, filepath.Join(root, "sub", "b.mock"), "ok")

	r := NewRegistry()
	r.Register(mockParser{lang: "mock", exts: []string{".mock"}})

	result := r.ParseFiles(root, []string{"sub/b.mock", "a.mock"})
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 parsed files, got %d", len(result.Files))
	}
	if result.Files[0].Path != "a.mock" {
		t.Fatalf("expected files sorted by path, got %s first", result.Files[0].Path)
	}

	seen := make(map[string]bool)
	for _, file := range result.Files {
		for _, sym := range file.Symbols {
			if sym.ID == "" {
				t.Fatalf("symbol %s has no ID", sym.Name)
			}
			if sym.File != file.Path {
				t.Fatalf("symbol file not set, got %q", sym.File)
			}
			if seen[sym.ID] {
				t.Fatalf("duplicate symbol ID %s", sym.ID)
			}
			seen[sym.ID] = true
		}
	}
}

func TestParseFilesRecordsIssuesWithoutAborting(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "good.mock"), "ok")
	mustWriteFile(t, filepath.Join(root, "bad.fail"), "x")

	r := NewRegistry()
	r.Register(mockParser{lang: "mock", exts: []string{".mock"}})
	r.Register(mockParser{lang: "failing", exts: []string{".fail"}, fail: true})

	result := r.ParseFiles(root, []string{"good.mock", "bad.fail"})
	if len(result.Files) != 1 {
		t.Fatalf("expected the good file to survive, got %d files", len(result.Files))
	}
	if len(result.Issues) != 1 || result.Issues[0].File != "bad.fail" {
		t.Fatalf("expected one issue for bad.fail, got %#v", result.Issues)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
