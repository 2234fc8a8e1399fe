package detect

import (
	"reflect"
	"strings"
	"testing"

	"logsmith/internal/config"
	"logsmith/internal/document"
	"logsmith/internal/message"
)

const sample = `const numbers = [1, 2, 3];
console.log("🚀 ~ numbers:", numbers);
console.log("hello", numbers);
// console.log("🚀 ~ numbers:", numbers);
  console.log(
    "🚀 ~ person:",
    person
  );
console.info("🚀 ~ x:", x);
console.log("total ~ a:", b);`

func TestDetect(t *testing.T) {
	doc := document.New("app.js", sample)
	got := DetectAll(doc, config.Default(), config.Overrides{})

	expected := []struct {
		start, end int
		commented  bool
		spaces     string
	}{
		{1, 1, false, ""},
		{3, 3, true, ""},
		{4, 7, false, "  "},
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %d messages, got %d: %+v", len(expected), len(got), got)
	}
	for i, e := range expected {
		m := got[i]
		if m.Range.Start != e.start || m.Range.End != e.end {
			t.Errorf("message %d: range = %+v, expected %d-%d", i, m.Range, e.start, e.end)
		}
		if m.IsCommented != e.commented {
			t.Errorf("message %d: IsCommented = %v", i, m.IsCommented)
		}
		if m.Spaces != e.spaces {
			t.Errorf("message %d: Spaces = %q, expected %q", i, m.Spaces, e.spaces)
		}
		if len(m.Lines) != m.Range.Len() {
			t.Errorf("message %d: %d lines for range %+v", i, len(m.Lines), m.Range)
		}
	}
}

func TestDetectIdempotent(t *testing.T) {
	doc := document.New("app.js", sample)
	first := DetectAll(doc, config.Default(), config.Overrides{})
	second := DetectAll(doc, config.Default(), config.Overrides{})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive detections differ:\n%+v\n%+v", first, second)
	}
}

func TestDetectOverrides(t *testing.T) {
	doc := document.New("app.js", `console.warn("🚀 ~ a:", a);`)
	if got := DetectAll(doc, config.Default(), config.Overrides{}); len(got) != 0 {
		t.Errorf("console.warn should not match the default log type: %+v", got)
	}
	if got := DetectAll(doc, config.Default(), config.Overrides{LogType: "warn"}); len(got) != 1 {
		t.Errorf("expected override to match, got %+v", got)
	}

	p := config.Default()
	p.LogFunction = "logger.debug"
	doc = document.New("app.js", `logger.debug("🚀 ~ a:", a);`)
	if got := DetectAll(doc, p, config.Overrides{}); len(got) != 1 {
		t.Errorf("expected custom log function to match, got %+v", got)
	}
}

func TestDetectWrapped(t *testing.T) {
	p := config.Default()
	p.WrapLogMessage = true
	stmt := message.Build("a", message.Context{}, p)
	doc := document.New("app.js", strings.Join(stmt.Render(""), "\n"))

	got := DetectAll(doc, p, config.Overrides{})
	if len(got) != 1 {
		t.Fatalf("expected one framed message, got %+v", got)
	}
	m := got[0]
	if !m.Wrap || m.Range.Start != 0 || m.Range.End != 2 || m.Call != 1 || len(m.Lines) != 3 {
		t.Errorf("unexpected message: %+v", m)
	}
	if m.CallText() != stmt.CallLine() {
		t.Errorf("CallText() = %q, expected %q", m.CallText(), stmt.CallLine())
	}
}

func TestDetectWrappedPartlyCommented(t *testing.T) {
	p := config.Default()
	p.WrapLogMessage = true
	lines := message.Build("a", message.Context{}, p).Render("")
	lines[1] = "// " + lines[1]
	doc := document.New("app.js", strings.Join(lines, "\n"))

	got := DetectAll(doc, p, config.Overrides{})
	if len(got) != 3 {
		t.Fatalf("expected banner, call, banner; got %+v", got)
	}
	if got[0].Call != -1 || got[1].Call != 1 || !got[1].IsCommented || got[2].Call != -1 {
		t.Errorf("unexpected messages: %+v", got)
	}
}

func TestWrappedBulkEdits(t *testing.T) {
	p := config.Default()
	p.WrapLogMessage = true
	p.IncludeLineNum = true
	stmt := message.Build("a", message.Context{Line: 9}, p)
	code := "const a = 1;\n" + strings.Join(stmt.Render("  "), "\n") + "\nrun();"
	doc := document.New("app.js", code)

	msgs := DetectAll(doc, p, config.Overrides{})
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %+v", msgs)
	}
	if err := doc.Apply(Correct(doc, msgs)); err != nil {
		t.Fatalf("Apply correct: %v", err)
	}
	if !strings.Contains(doc.Line(2), "line:3") {
		t.Errorf("call line = %q, expected line:3", doc.Line(2))
	}

	msgs = DetectAll(doc, p, config.Overrides{})
	if err := doc.Apply(Comment(doc, msgs)); err != nil {
		t.Fatalf("Apply comment: %v", err)
	}
	msgs = DetectAll(doc, p, config.Overrides{})
	if len(msgs) != 1 || !msgs[0].IsCommented || msgs[0].Range.Len() != 3 {
		t.Fatalf("expected one commented message, got %+v", msgs)
	}

	if err := doc.Apply(Delete(doc, msgs)); err != nil {
		t.Fatalf("Apply delete: %v", err)
	}
	if doc.Text() != "const a = 1;\nrun();" {
		t.Errorf("after delete: %q", doc.Text())
	}
}

func TestCommentUncommentRoundTrip(t *testing.T) {
	code := "function f() {\n  console.log(\"🚀 ~ a:\", a);\n  console.log(\n    \"🚀 ~ b:\",\n    b\n  );\n}"
	doc := document.New("app.js", code)

	msgs := DetectAll(doc, config.Default(), config.Overrides{})
	if err := doc.Apply(Comment(doc, msgs)); err != nil {
		t.Fatalf("Apply comment: %v", err)
	}
	if doc.Line(1) != `  // console.log("🚀 ~ a:", a);` {
		t.Errorf("commented line = %q", doc.Line(1))
	}

	msgs = DetectAll(doc, config.Default(), config.Overrides{})
	if len(msgs) != 2 || !msgs[0].IsCommented || !msgs[1].IsCommented {
		t.Fatalf("expected two commented messages, got %+v", msgs)
	}
	if b := Comment(doc, msgs); b.Len() != 0 {
		t.Errorf("commenting commented messages produced %d edits", b.Len())
	}

	if err := doc.Apply(Uncomment(doc, msgs)); err != nil {
		t.Fatalf("Apply uncomment: %v", err)
	}
	if doc.Text() != code {
		t.Errorf("round trip changed the text:\n%s", doc.Text())
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name:     "surrounding blank lines",
			code:     "function f() {\n  const a = 1;\n\n  console.log(\"🚀 ~ a:\", a);\n\n  return a;\n}",
			expected: "function f() {\n  const a = 1;\n  return a;\n}",
		},
		{
			name:     "shared blank line",
			code:     "a();\n\nconsole.log(\"🚀 ~ a:\", a);\n\nconsole.log(\"🚀 ~ b:\", b);\n\nb();",
			expected: "a();\nb();",
		},
		{
			name:     "no blank lines",
			code:     "a();\nconsole.log(\"🚀 ~ a:\", a);\nb();",
			expected: "a();\nb();",
		},
	}

	for _, tt := range tests {
		doc := document.New("app.js", tt.code)
		msgs := DetectAll(doc, config.Default(), config.Overrides{})
		if err := doc.Apply(Delete(doc, msgs)); err != nil {
			t.Fatalf("%s: Apply failed: %v", tt.name, err)
		}
		if doc.Text() != tt.expected {
			t.Errorf("%s: got %q, expected %q", tt.name, doc.Text(), tt.expected)
		}
	}
}

func TestCorrect(t *testing.T) {
	code := "const a = 1;\n\nconsole.log(\"🚀 ~ file: old.js:1 ~ a:\", a);\nconsole.log(\"🚀 ~ line:7 ~ b:\", b);"
	doc := document.New("src/app.js", code)

	msgs := DetectAll(doc, config.Default(), config.Overrides{})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %+v", msgs)
	}
	if err := doc.Apply(Correct(doc, msgs)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if doc.Line(2) != `console.log("🚀 ~ file: app.js:3 ~ a:", a);` {
		t.Errorf("line 2 = %q", doc.Line(2))
	}
	if doc.Line(3) != `console.log("🚀 ~ line:4 ~ b:", b);` {
		t.Errorf("line 3 = %q", doc.Line(3))
	}

	msgs = DetectAll(doc, config.Default(), config.Overrides{})
	if b := Correct(doc, msgs); b.Len() != 0 {
		t.Errorf("correct on corrected messages produced %d edits", b.Len())
	}
}
