package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("const a = 1;\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestGetAllSourceFiles(t *testing.T) {
	root := t.TempDir()
	app := touch(t, root, "src/app.js")
	view := touch(t, root, "src/view.tsx")
	touch(t, root, "src/types.d.ts")
	touch(t, root, "src/readme.md")
	touch(t, root, "node_modules/lib/index.js")
	touch(t, root, "out/bundle.js")
	touch(t, root, "src/app.min.js")
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# build\nout/\n*.min.js\n"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := GetAllSourceFiles(root)
	if err != nil {
		t.Fatalf("GetAllSourceFiles failed: %v", err)
	}
	expected := []string{app, view}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("got %v, expected %v", files, expected)
	}
}

func TestExpandPaths(t *testing.T) {
	root := t.TempDir()
	a := touch(t, root, "a.ts")
	b := touch(t, root, "lib/b.js")

	files, err := ExpandPaths([]string{root, a})
	if err != nil {
		t.Fatalf("ExpandPaths failed: %v", err)
	}
	if !reflect.DeepEqual(files, []string{a, b}) {
		t.Errorf("got %v", files)
	}

	txt := touch(t, root, "notes.txt")
	if _, err := ExpandPaths([]string{txt}); err == nil {
		t.Errorf("expected an error for an unsupported file")
	}
	if _, err := ExpandPaths([]string{filepath.Join(root, "missing.js")}); err == nil {
		t.Errorf("expected an error for a missing path")
	}
}

func TestIsIgnoredPath(t *testing.T) {
	patterns := []string{"dist/", "*.gen.ts", "/coverage", "tmp"}
	tests := []struct {
		path     string
		expected bool
	}{
		{"dist/app.js", true},
		{"src/api.gen.ts", true},
		{"coverage/index.js", true},
		{"coverage", true},
		{"src/tmp/x.js", true},
		{"src/app.ts", false},
	}
	for _, tt := range tests {
		if got := isIgnoredPath(tt.path, patterns); got != tt.expected {
			t.Errorf("isIgnoredPath(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}
