// Package enclosing finds the name of the class or function that contains a
// line.
package enclosing

import (
	"strings"

	"logsmith/internal/brackets"
	"logsmith/internal/jsline"
)

// Kind selects what kind of block to look for.
type Kind int

const (
	Class Kind = iota
	Function
)

func (k Kind) String() string {
	if k == Class {
		return "class"
	}
	return "function"
}

// Resolver answers enclosing-name queries. An empty string means the line is
// not inside a block of that kind.
type Resolver interface {
	EnclosingName(doc brackets.Lines, line int, kind Kind) string
}

// LineResolver walks backward from the line and checks each declaration it
// meets against the bracket closer. The zero value uses brackets.Default.
type LineResolver struct {
	Closer brackets.Closer
}

// EnclosingName returns the nearest enclosing class or function name.
func (r LineResolver) EnclosingName(doc brackets.Lines, line int, kind Kind) string {
	closer := r.Closer
	if closer == nil {
		closer = brackets.Default
	}
	for i := line; i >= 0; i-- {
		text := doc.Line(i)
		var (
			name string
			ok   bool
		)
		switch kind {
		case Class:
			name, ok = jsline.ClassName(text)
		default:
			name, ok = jsline.FunctionName(text)
		}
		if !ok {
			continue
		}
		end, ok := closeBody(closer, doc, i)
		if !ok {
			continue
		}
		if kind == Class && i < line && line < end {
			return name
		}
		if kind == Function && i <= line && line < end {
			return name
		}
	}
	return ""
}

// closeBody returns the line holding the closing brace of the body declared
// on decl. When the declaration line has no brace the parameter list is
// closed first and the body must open right after it.
func closeBody(closer brackets.Closer, doc brackets.Lines, decl int) (int, bool) {
	if strings.Contains(jsline.Code(doc.Line(decl)), "{") {
		return closer.Close(doc, decl, brackets.CurlyBrace)
	}
	params, ok := closer.Close(doc, decl, brackets.Parenthesis)
	if !ok {
		return -1, false
	}
	for i := params; i <= params+1 && i < doc.LineCount(); i++ {
		code := jsline.Code(doc.Line(i))
		if code == "" {
			continue
		}
		if i == params && !strings.HasSuffix(code, "{") {
			continue
		}
		if i > params && !strings.HasPrefix(code, "{") {
			return -1, false
		}
		return closer.Close(doc, i, brackets.CurlyBrace)
	}
	return -1, false
}
