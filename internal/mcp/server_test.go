package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logsmith/internal/config"
	"logsmith/internal/detect"
	"logsmith/internal/engine"
)

type response struct {
	ID     interface{} `json:"id"`
	Result struct {
		Tools   []map[string]interface{} `json:"tools"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

func serve(t *testing.T, root string, requests ...string) []response {
	t.Helper()
	s, err := NewServer(engine.New(config.Default(), nil), root, "test", nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(strings.Join(requests, "\n")), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var responses []response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var r response
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("invalid response %q: %v", line, err)
		}
		responses = append(responses, r)
	}
	return responses
}

func TestServerProtocol(t *testing.T) {
	root := t.TempDir()
	responses := serve(t, root,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"format_code","arguments":{}}}`,
	)
	if len(responses) != 5 {
		t.Fatalf("expected 5 responses, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Errorf("initialize failed: %+v", responses[0].Error)
	}
	if n := len(responses[1].Result.Tools); n != 6 {
		t.Errorf("expected 6 tools, got %d", n)
	}
	if responses[2].Error == nil || responses[2].Error.Code != -32601 {
		t.Errorf("expected method not found, got %+v", responses[2].Error)
	}
	if responses[3].Error == nil || responses[3].Error.Code != -32700 {
		t.Errorf("expected parse error, got %+v", responses[3].Error)
	}
	if responses[4].Error == nil || responses[4].Error.Code != -32602 {
		t.Errorf("expected unknown tool error, got %+v", responses[4].Error)
	}
}

func TestServerTools(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	if err := os.WriteFile(path, []byte("const a = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	responses := serve(t, root,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"insert_log","arguments":{"path":"a.js","selections":[{"line":0,"column":6}]}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"detect_logs","arguments":{"paths":["."]}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"comment_logs","arguments":{"paths":["a.js"]}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"insert_log","arguments":{"path":"../outside.js","selections":[{"line":0}]}}}`,
	)
	if len(responses) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(responses))
	}
	for i, r := range responses[:3] {
		if r.Error != nil {
			t.Fatalf("call %d failed: %+v", i+1, r.Error)
		}
	}

	var detected []struct {
		Path     string           `json:"path"`
		Messages []detect.Message `json:"messages"`
	}
	if err := json.Unmarshal([]byte(responses[1].Result.Content[0].Text), &detected); err != nil {
		t.Fatalf("invalid detect output: %v", err)
	}
	if len(detected) != 1 || len(detected[0].Messages) != 1 || detected[0].Messages[0].Range.Start != 1 {
		t.Errorf("unexpected detect output: %+v", detected)
	}

	if responses[3].Error == nil {
		t.Errorf("expected a path outside the root to be refused")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := "const a = 1;\n// console.log(\"🚀 ~ a:\", a);\n"
	if string(data) != expected {
		t.Errorf("file = %q, expected %q", data, expected)
	}
}

func TestServerInsertRejectsUnsupportedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.py")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	responses := serve(t, root,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"insert_log","arguments":{"path":"main.py","selections":[{"line":0,"text":"a"}]}}}`,
	)
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatalf("expected an error for a Python file, got %+v", responses)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a = 1\n" {
		t.Errorf("file changed: %q", data)
	}
}
