package syntax

import (
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"logsmith/internal/document"
	"logsmith/internal/enclosing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected Language
	}{
		{"src/app.js", LanguageJavaScript},
		{"src/App.JSX", LanguageJavaScript},
		{"lib/index.mjs", LanguageJavaScript},
		{"src/service.ts", LanguageTypeScript},
		{"src/View.tsx", LanguageTSX},
		{"main.go", ""},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.expected {
			t.Errorf("DetectLanguage(%q) = %q, expected %q", tt.path, got, tt.expected)
		}
	}

	if err := CheckSupported("main.py"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("CheckSupported(main.py) = %v, expected ErrUnsupportedLanguage", err)
	}
	if err := CheckSupported("main.ts"); err != nil {
		t.Errorf("CheckSupported(main.ts) = %v", err)
	}
}

const source = `class Foo {
  count = 0;

  bar() {
    const x = 1;
  }
}

const handler = async (req) => {
  items.forEach((item) => {
    use(item);
  });
};
`

func TestResolverEnclosingName(t *testing.T) {
	for _, path := range []string{"test.js", "test.ts"} {
		doc := document.New(path, source)
		r := NewResolver(path)

		tests := []struct {
			line     int
			kind     enclosing.Kind
			expected string
		}{
			{4, enclosing.Class, "Foo"},
			{4, enclosing.Function, "bar"},
			{1, enclosing.Function, ""},
			{1, enclosing.Class, "Foo"},
			{10, enclosing.Function, "handler"},
			{10, enclosing.Class, ""},
		}
		for _, tt := range tests {
			if got := r.EnclosingName(doc, tt.line, tt.kind); got != tt.expected {
				t.Errorf("%s: EnclosingName(%d, %s) = %q, expected %q", path, tt.line, tt.kind, got, tt.expected)
			}
		}
	}
}

func TestResolverFallsBackForUnknownExtension(t *testing.T) {
	doc := document.New("notes.txt", source)
	r := NewResolver("notes.txt")
	if got := r.EnclosingName(doc, 4, enclosing.Function); got != "bar" {
		t.Errorf("fallback EnclosingName() = %q, expected bar", got)
	}
}

func TestAncestorsSharedRow(t *testing.T) {
	code := []byte("function a() { run(); } function b() {\n  const x = 1;\n}")
	r := NewResolver("test.js")
	tree, err := r.parse(code)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer tree.Close()

	tests := []struct {
		column   uint32
		expected string
	}{
		{0, "a"},
		{15, "a"},
		{24, "b"},
		{35, "b"},
	}
	for _, tt := range tests {
		path := ancestors(tree.RootNode(), sitter.Point{Row: 0, Column: tt.column})
		got := ""
		for _, node := range path {
			if functionNodes[node.Type()] {
				got = nodeName(node, code)
			}
		}
		if got != tt.expected {
			t.Errorf("column %d: innermost function = %q, expected %q", tt.column, got, tt.expected)
		}
	}
}

func TestResolverLineAfterSharedRow(t *testing.T) {
	doc := document.New("test.js", "function a() {\n  run();\n} function b() {\n  const x = 1;\n}")
	r := NewResolver("test.js")
	if got := r.EnclosingName(doc, 3, enclosing.Function); got != "b" {
		t.Errorf("EnclosingName(3) = %q, expected b", got)
	}
	if got := r.EnclosingName(doc, 1, enclosing.Function); got != "a" {
		t.Errorf("EnclosingName(1) = %q, expected a", got)
	}
}
