package enclosing

import (
	"testing"

	"logsmith/internal/document"
)

const classSource = `class Foo {
  count = 0;

  bar() {
    const x = 1;
  }

  async baz(
    a,
    b
  ) {
    if (a) {
      return b;
    }
  }
}

function outer() {
  items.forEach(item => {
    use(item);
  });
}`

func TestEnclosingName(t *testing.T) {
	doc := document.New("test.js", classSource)
	var r LineResolver

	tests := []struct {
		line     int
		kind     Kind
		expected string
	}{
		{4, Class, "Foo"},
		{4, Function, "bar"},
		{1, Class, "Foo"},
		{1, Function, ""},
		{3, Function, "bar"},
		{8, Function, "baz"},
		{12, Function, "baz"},
		{12, Class, "Foo"},
		{19, Function, "outer"},
		{19, Class, ""},
		{0, Class, ""},
	}
	for _, tt := range tests {
		if got := r.EnclosingName(doc, tt.line, tt.kind); got != tt.expected {
			t.Errorf("EnclosingName(%d, %s) = %q, expected %q", tt.line, tt.kind, got, tt.expected)
		}
	}
}

func TestEnclosingNameArrowAssignment(t *testing.T) {
	doc := document.New("test.ts", "export const load = async (id: string) => {\n  const user = await get(id);\n  return user;\n};\nconst after = 1;")
	var r LineResolver
	if got := r.EnclosingName(doc, 1, Function); got != "load" {
		t.Errorf("EnclosingName() = %q, expected load", got)
	}
	if got := r.EnclosingName(doc, 4, Function); got != "" {
		t.Errorf("EnclosingName() after body = %q, expected empty", got)
	}
}

func TestEnclosingNameControlFlowExcluded(t *testing.T) {
	doc := document.New("test.js", "while (running) {\n  const tick = next();\n}")
	var r LineResolver
	if got := r.EnclosingName(doc, 1, Function); got != "" {
		t.Errorf("EnclosingName() = %q, expected empty", got)
	}
}
