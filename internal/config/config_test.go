package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefault(t *testing.T) {
	p := Default()
	if p.LogMessagePrefix != "🚀" || p.DelimiterInsideMessage != "~" || p.Quote != `"` {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if !p.AddSemicolonInTheEnd || !p.InsertEnclosingClass || !p.InsertEnclosingFunction {
		t.Errorf("expected semicolon and enclosing names enabled by default")
	}
	if p.Tab() != "  " {
		t.Errorf("Tab() = %q, expected two spaces", p.Tab())
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"LOGSMITH_LOG_TYPE", "LOGSMITH_INCLUDE_LINE_NUM"} {
		// Register restoration, then unset so .env can provide the value.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	writeFile(t, filepath.Join(home, ".logsmith", "config.yaml"), "logMessagePrefix: \"[dbg]\"\nincludeFilename: true\nlogType: info\n")
	writeFile(t, filepath.Join(project, ".logsmith.toml"), "logType = \"warn\"\ntabSize = 4\n")
	writeFile(t, filepath.Join(project, ".env"), "LOGSMITH_INCLUDE_LINE_NUM=true\n")

	p, err := Load(project)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.LogMessagePrefix != "[dbg]" {
		t.Errorf("user prefix not applied: %q", p.LogMessagePrefix)
	}
	if !p.IncludeFilename {
		t.Errorf("user includeFilename not applied")
	}
	if p.LogType != "warn" {
		t.Errorf("project file should override user file, got logType %q", p.LogType)
	}
	if p.TabSize != 4 {
		t.Errorf("TabSize = %d, expected 4", p.TabSize)
	}
	if !p.IncludeLineNum {
		t.Errorf(".env value not applied")
	}
	if p.DelimiterInsideMessage != "~" {
		t.Errorf("untouched key lost its default: %q", p.DelimiterInsideMessage)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOGSMITH_LOG_FUNCTION", "logger.debug")
	t.Setenv("LOGSMITH_WRAP_LOG_MESSAGE", "true")
	t.Setenv("LOGSMITH_TAB_SIZE", "4")

	p := Default()
	if err := ApplyEnv(&p); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if p.LogFunction != "logger.debug" || !p.WrapLogMessage || p.TabSize != 4 {
		t.Errorf("env not applied: %+v", p)
	}

	t.Setenv("LOGSMITH_WRAP_LOG_MESSAGE", "maybe")
	if err := ApplyEnv(&p); err == nil {
		t.Errorf("expected an error for an invalid boolean")
	}
}

func TestValidate(t *testing.T) {
	p := Default()
	p.Quote = "x"
	if err := p.Validate(); err == nil {
		t.Errorf("expected invalid quote to fail")
	}

	p = Default()
	p.EnclosingResolver = "ast"
	if err := p.Validate(); err == nil {
		t.Errorf("expected invalid resolver to fail")
	}
}

func TestOverrides(t *testing.T) {
	p := Overrides{LogType: "error", Delimiter: "|"}.Apply(Default())
	if p.LogType != "error" || p.DelimiterInsideMessage != "|" || p.LogFunction != "log" {
		t.Errorf("unexpected result: %+v", p)
	}
}
