package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logsmith/internal/config"
	"logsmith/internal/document"
)

func insert(t *testing.T, props config.Properties, path, code string, sels ...document.Selection) (*document.Document, Result) {
	t.Helper()
	doc := document.New(path, code)
	res, err := New(props, nil).Insert(doc, sels)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return doc, res
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		sel      document.Selection
		expected string
	}{
		{
			name:     "array assignment",
			code:     "const numbers = [1, 2, 3];",
			sel:      document.Cursor(0, 8),
			expected: "const numbers = [1, 2, 3];\nconsole.log(\"🚀 ~ numbers:\", numbers);",
		},
		{
			name:     "object literal appends after closing brace",
			code:     "const person = {\n  name: \"a\"\n};",
			sel:      document.Cursor(0, 6),
			expected: "const person = {\n  name: \"a\"\n};\nconsole.log(\"🚀 ~ person:\", person);",
		},
		{
			name:     "enclosing class and method",
			code:     "class Foo {\n  bar() {\n    const x = 1;\n  }\n}",
			sel:      document.Cursor(2, 10),
			expected: "class Foo {\n  bar() {\n    const x = 1;\n    console.log(\"🚀 ~ Foo ~ bar ~ x:\", x);\n  }\n}",
		},
		{
			name:     "typed method keeps the statement in its body",
			code:     "class A {\n  async load(): Promise<void> {\n    const x = 1;\n    return;\n  }\n}",
			sel:      document.Cursor(2, 10),
			expected: "class A {\n  async load(): Promise<void> {\n    const x = 1;\n    console.log(\"🚀 ~ A ~ load ~ x:\", x);\n    return;\n  }\n}",
		},
		{
			name:     "explicit selection text",
			code:     "const total = 1;",
			sel:      document.Selection{Start: document.Position{Line: 0, Column: 6}, End: document.Position{Line: 0, Column: 11}},
			expected: "const total = 1;\nconsole.log(\"🚀 ~ total:\", total);",
		},
	}

	for _, tt := range tests {
		doc, res := insert(t, config.Default(), "app.js", tt.code, tt.sel)
		if doc.Text() != tt.expected {
			t.Errorf("%s:\n got: %q\nwant: %q", tt.name, doc.Text(), tt.expected)
		}
		if len(res.Insertions) != 1 {
			t.Errorf("%s: expected one insertion, got %d", tt.name, len(res.Insertions))
		}
	}
}

func TestInsertThenDetect(t *testing.T) {
	doc, res := insert(t, config.Default(), "app.js", "const numbers = [1, 2, 3];\n\nrun(numbers);", document.Cursor(0, 8))

	msgs := New(config.Default(), nil).Detect(doc, config.Overrides{})
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %+v", msgs)
	}
	if msgs[0].Range != res.Insertions[0].Range {
		t.Errorf("detected range %+v, inserted range %+v", msgs[0].Range, res.Insertions[0].Range)
	}
	if res.Insertions[0].Category != "ArrayAssignment" {
		t.Errorf("Category = %s", res.Insertions[0].Category)
	}
}

func TestInsertWrappedThenDetect(t *testing.T) {
	p := config.Default()
	p.WrapLogMessage = true
	p.InsertEmptyLineBeforeLogMessage = true
	doc, res := insert(t, p, "app.js", "const a = 1;", document.Cursor(0, 6))

	ins := res.Insertions[0]
	if ins.Block.Start != 1 || ins.Block.End != 4 || ins.Call != 3 {
		t.Errorf("unexpected ranges: %+v", ins)
	}
	if ins.Range.Start != 2 || ins.Range.End != 4 {
		t.Errorf("Range = %+v, expected the banners and the call", ins.Range)
	}
	msgs := New(p, nil).Detect(doc, config.Overrides{})
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %+v", msgs)
	}
	if msgs[0].Range != ins.Range || msgs[0].Call != ins.Call {
		t.Errorf("detected %+v, inserted %+v", msgs[0], ins)
	}
}

func TestInsertMultipleSelections(t *testing.T) {
	doc, res := insert(t, config.Default(), "app.js", "const a = 1;\nconst b = 2;",
		document.Cursor(0, 6), document.Cursor(1, 6))

	expected := "const a = 1;\nconsole.log(\"🚀 ~ a:\", a);\nconst b = 2;\nconsole.log(\"🚀 ~ b:\", b);"
	if doc.Text() != expected {
		t.Errorf("got %q, expected %q", doc.Text(), expected)
	}
	if len(res.Insertions) != 2 || res.Insertions[1].Range.Start != 3 {
		t.Errorf("unexpected insertions: %+v", res.Insertions)
	}
}

func TestInsertSkipsEmptySelection(t *testing.T) {
	code := "const a = 1;\n\nconst b = 2;"
	doc, res := insert(t, config.Default(), "app.js", code, document.Cursor(1, 0), document.Cursor(2, 6))
	if len(res.Insertions) != 1 || res.Insertions[0].Variable != "b" {
		t.Fatalf("expected only b to be logged, got %+v", res.Insertions)
	}
	if !strings.HasPrefix(doc.Text(), "const a = 1;\n\nconst b = 2;\n") {
		t.Errorf("unexpected text: %q", doc.Text())
	}
}

func TestInsertRewritesArrowFunction(t *testing.T) {
	p := config.Default()
	p.InsertEnclosingFunction = false
	doc, res := insert(t, p, "app.js", "items.filter(x => x.active)", document.Cursor(0, 13))

	expected := "items.filter(x => {\n  console.log(\"🚀 ~ x:\", x);\n  return x.active;\n})"
	if doc.Text() != expected {
		t.Errorf("got %q, expected %q", doc.Text(), expected)
	}
	ins := res.Insertions[0]
	if !ins.Rewritten || ins.Range.Start != 1 || ins.Block.End != 3 {
		t.Errorf("unexpected insertion: %+v", ins)
	}
	if msgs := New(p, nil).Detect(doc, config.Overrides{}); len(msgs) != 1 || msgs[0].Range != ins.Range {
		t.Errorf("detect after rewrite = %+v", msgs)
	}
}

func TestInsertSyntaxResolver(t *testing.T) {
	p := config.Default()
	p.EnclosingResolver = config.ResolverSyntax
	doc, _ := insert(t, p, "app.ts", "class Foo {\n  bar() {\n    const x = 1;\n  }\n}", document.Cursor(2, 10))
	if got := doc.Line(3); got != `    console.log("🚀 ~ Foo ~ bar ~ x:", x);` {
		t.Errorf("line 3 = %q", got)
	}
}

func TestInsertWithoutDocument(t *testing.T) {
	if _, err := New(config.Default(), nil).Insert(nil, nil); !errors.Is(err, document.ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}

func TestResultDiff(t *testing.T) {
	_, res := insert(t, config.Default(), "app.js", "const a = 1;", document.Cursor(0, 6))
	d, err := res.Diff()
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(string(d), "+console.log(\"🚀 ~ a:\", a);") {
		t.Errorf("diff missing insertion:\n%s", d)
	}
}

func TestParseOperation(t *testing.T) {
	if op, err := ParseOperation("delete"); err != nil || op != OpDelete {
		t.Errorf("ParseOperation(delete) = %v, %v", op, err)
	}
	if _, err := ParseOperation("format"); err == nil {
		t.Errorf("expected an error for an unknown operation")
	}
}

func TestProcessFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.ts")
	if err := os.WriteFile(a, []byte("run();\nconsole.log(\"🚀 ~ a:\", a);\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("const b = 2;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.js")

	e := New(config.Default(), nil)
	results, err := e.ProcessFiles(context.Background(), []string{a, b, missing}, OpComment, FileOptions{Diff: true})
	if err != nil {
		t.Fatalf("ProcessFiles failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Edits != 1 || !strings.Contains(results[0].Diff, "+// console.log") {
		t.Errorf("unexpected result for a.js: %+v", results[0])
	}
	if results[1].Edits != 0 || len(results[1].Messages) != 0 {
		t.Errorf("unexpected result for b.ts: %+v", results[1])
	}
	if !errors.Is(results[2].Err, document.ErrNoDocument) {
		t.Errorf("expected ErrNoDocument for the missing file, got %v", results[2].Err)
	}

	data, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "run();\n// console.log(\"🚀 ~ a:\", a);\n" {
		t.Errorf("a.js = %q", data)
	}
}

func TestProcessFilesDryRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	content := "run();\n\nconsole.log(\"🚀 ~ a:\", a);\n"
	if err := os.WriteFile(a, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	results, err := New(config.Default(), nil).ProcessFiles(context.Background(), []string{a}, OpDelete, FileOptions{DryRun: true})
	if err != nil {
		t.Fatalf("ProcessFiles failed: %v", err)
	}
	if results[0].Edits != 1 {
		t.Errorf("Edits = %d, expected 1", results[0].Edits)
	}
	data, _ := os.ReadFile(a)
	if string(data) != content {
		t.Errorf("dry run modified the file: %q", data)
	}
}
