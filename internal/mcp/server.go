package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"logsmith/internal/config"
	"logsmith/internal/document"
	"logsmith/internal/engine"
	"logsmith/internal/logging"
	"logsmith/internal/syntax"
	"logsmith/internal/utils"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server exposes the engine as tools over line-delimited JSON-RPC.
type Server struct {
	engine  *engine.Engine
	root    string
	version string
	logger  *slog.Logger
}

// NewServer creates a server that resolves relative paths against root.
func NewServer(e *engine.Engine, root, version string, logger *slog.Logger) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	return &Server{
		engine:  e,
		root:    abs,
		version: version,
		logger:  logging.Component(logger, "mcp"),
	}, nil
}

// Run serves requests from stdin until it is closed.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			var req JSONRPCRequest
			if jerr := json.Unmarshal(line, &req); jerr != nil {
				s.writeError(writer, nil, -32700, "Parse error")
			} else {
				s.handleRequest(ctx, writer, &req)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, writer *bufio.Writer, req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(writer, req)
	case "tools/list":
		s.handleToolsList(writer, req)
	case "tools/call":
		s.handleToolsCall(ctx, writer, req)
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			return
		}
		s.writeError(writer, req.ID, -32601, "Method not found")
	}
}

func (s *Server) handleInitialize(writer *bufio.Writer, req *JSONRPCRequest) {
	result := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]string{
			"name":    "logsmith",
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]bool{},
		},
	}
	s.writeResponse(writer, req.ID, result)
}

var overrideProperties = map[string]interface{}{
	"log_function": map[string]string{"type": "string"},
	"log_type":     map[string]string{"type": "string"},
	"delimiter":    map[string]string{"type": "string"},
}

func bulkTool(name, description string) map[string]interface{} {
	props := map[string]interface{}{
		"paths": map[string]interface{}{
			"type":  "array",
			"items": map[string]string{"type": "string"},
		},
		"dry_run": map[string]string{"type": "boolean"},
	}
	for k, v := range overrideProperties {
		props[k] = v
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": props,
			"required":   []string{"paths"},
		},
	}
}

func (s *Server) handleToolsList(writer *bufio.Writer, req *JSONRPCRequest) {
	tools := []map[string]interface{}{
		{
			"name":        "insert_log",
			"description": "Insert a debug log statement for the variable at each position",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]string{"type": "string"},
					"selections": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"line":   map[string]string{"type": "integer"},
								"column": map[string]string{"type": "integer"},
								"text":   map[string]string{"type": "string"},
							},
							"required": []string{"line"},
						},
					},
					"dry_run": map[string]string{"type": "boolean"},
				},
				"required": []string{"path", "selections"},
			},
		},
		bulkTool("detect_logs", "List generated debug log statements"),
		bulkTool("comment_logs", "Comment out generated debug log statements"),
		bulkTool("uncomment_logs", "Uncomment generated debug log statements"),
		bulkTool("delete_logs", "Delete generated debug log statements"),
		bulkTool("correct_logs", "Update file names and line numbers inside generated debug log statements"),
	}
	s.writeResponse(writer, req.ID, map[string]interface{}{"tools": tools})
}

var bulkTools = map[string]engine.Operation{
	"detect_logs":    engine.OpDetect,
	"comment_logs":   engine.OpComment,
	"uncomment_logs": engine.OpUncomment,
	"delete_logs":    engine.OpDelete,
	"correct_logs":   engine.OpCorrect,
}

func (s *Server) handleToolsCall(ctx context.Context, writer *bufio.Writer, req *JSONRPCRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(writer, req.ID, -32602, "Invalid params")
		return
	}

	var result interface{}
	var err error

	if op, ok := bulkTools[params.Name]; ok {
		result, err = s.handleBulk(ctx, op, params.Arguments)
	} else if params.Name == "insert_log" {
		result, err = s.handleInsert(params.Arguments)
	} else {
		s.writeError(writer, req.ID, -32602, "Unknown tool")
		return
	}

	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		s.writeError(writer, req.ID, -32603, err.Error())
		return
	}

	s.writeResponse(writer, req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": formatResult(result),
			},
		},
	})
}

type selectionInput struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

type insertOutput struct {
	Path       string             `json:"path"`
	Insertions []engine.Insertion `json:"insertions"`
	Diff       string             `json:"diff,omitempty"`
}

func (s *Server) handleInsert(args json.RawMessage) (interface{}, error) {
	var input struct {
		Path       string           `json:"path"`
		Selections []selectionInput `json:"selections"`
		DryRun     bool             `json:"dry_run"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, err
	}
	path, err := s.resolve(input.Path)
	if err != nil {
		return nil, err
	}
	if err := syntax.CheckSupported(path); err != nil {
		return nil, err
	}
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	sels := make([]document.Selection, 0, len(input.Selections))
	for _, in := range input.Selections {
		sel := document.Cursor(in.Line, in.Column)
		sel.Text = in.Text
		sels = append(sels, sel)
	}
	res, err := s.engine.Insert(doc, sels)
	if err != nil {
		return nil, err
	}
	out := insertOutput{Path: path, Insertions: res.Insertions}
	if input.DryRun {
		d, err := res.Diff()
		if err != nil {
			return nil, err
		}
		out.Diff = string(d)
		return out, nil
	}
	if len(res.Insertions) > 0 {
		if err := doc.Save(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type fileOutput struct {
	Path     string      `json:"path"`
	Messages interface{} `json:"messages"`
	Edits    int         `json:"edits"`
	Diff     string      `json:"diff,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func (s *Server) handleBulk(ctx context.Context, op engine.Operation, args json.RawMessage) (interface{}, error) {
	var input struct {
		Paths       []string `json:"paths"`
		DryRun      bool     `json:"dry_run"`
		LogFunction string   `json:"log_function"`
		LogType     string   `json:"log_type"`
		Delimiter   string   `json:"delimiter"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, err
	}
	if len(input.Paths) == 0 {
		input.Paths = []string{"."}
	}
	resolved := make([]string, 0, len(input.Paths))
	for _, p := range input.Paths {
		path, err := s.resolve(p)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, path)
	}
	files, err := utils.ExpandPaths(resolved)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.ProcessFiles(ctx, files, op, engine.FileOptions{
		Overrides: config.Overrides{
			LogFunction: input.LogFunction,
			LogType:     input.LogType,
			Delimiter:   input.Delimiter,
		},
		DryRun: input.DryRun || op == engine.OpDetect,
		Diff:   input.DryRun,
	})
	if err != nil {
		return nil, err
	}

	out := make([]fileOutput, 0, len(results))
	for _, r := range results {
		if len(r.Messages) == 0 && r.Err == nil {
			continue
		}
		fo := fileOutput{Path: r.Path, Messages: r.Messages, Edits: r.Edits, Diff: r.Diff}
		if r.Err != nil {
			fo.Error = r.Err.Error()
		}
		out = append(out, fo)
	}
	return out, nil
}

// resolve maps a tool path onto the server root and refuses paths outside it.
func (s *Server) resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", p, s.root)
	}
	return p, nil
}

func (s *Server) writeResponse(writer *bufio.Writer, id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	data, _ := json.Marshal(resp)
	writer.Write(data)
	writer.WriteByte('\n')
	writer.Flush()
}

func (s *Server) writeError(writer *bufio.Writer, id interface{}, code int, message string) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
		},
	}
	data, _ := json.Marshal(resp)
	writer.Write(data)
	writer.WriteByte('\n')
	writer.Flush()
}

func formatResult(result interface{}) string {
	data, _ := json.MarshalIndent(result, "", "  ")
	return string(data)
}
