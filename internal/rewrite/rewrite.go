// Package rewrite turns an expression-bodied arrow function into a block
// body so a debug statement can be placed before its return.
package rewrite

import (
	"errors"
	"strings"

	"logsmith/internal/brackets"
	"logsmith/internal/document"
	"logsmith/internal/jsline"
	"logsmith/internal/message"
)

// ErrNotRewritable is returned when the line holds no expression-bodied
// arrow function.
var ErrNotRewritable = errors.New("no expression-bodied arrow function on line")

// Options controls the shape of the rewritten block.
type Options struct {
	Tab       string
	Semicolon bool
	Closer    brackets.Closer
}

// Result is the outcome of a rewrite.
type Result struct {
	Batch *document.Batch
	// CallLine is the line the debug call occupies once the batch is applied.
	CallLine int
	// EndLine is the last original line consumed by the rewrite.
	EndLine int
	// Block is the range the rewritten function occupies afterwards.
	Block document.LineRange
}

// Rewrite replaces the arrow function starting on line with
//
//	params => {
//	  <statement>
//	  return <expr>;
//	}<trailing>
//
// where trailing keeps whatever closed the enclosing call. The whole
// replacement is one batch.
func Rewrite(doc brackets.Lines, line int, stmt message.Statement, opts Options) (Result, error) {
	if opts.Closer == nil {
		opts.Closer = brackets.Default
	}
	text := doc.Line(line)
	arrow, ok := jsline.ParseArrow(text)
	if !ok || arrow.BlockBody() {
		return Result{}, ErrNotRewritable
	}

	end, ok := bodyEnd(doc, line, arrow, opts.Closer)
	if !ok {
		return Result{}, ErrNotRewritable
	}

	var segments []string
	if arrow.Body != "" {
		segments = append(segments, arrow.Body)
	}
	for i := line + 1; i <= end; i++ {
		segments = append(segments, strings.TrimRight(doc.Line(i), " \t"))
	}
	expr, trailing := splitTrailing(segments)
	if len(expr) == 0 {
		return Result{}, ErrNotRewritable
	}

	indent := document.Indentation(text)
	inner := indent + opts.Tab

	out := []string{arrow.Left + " => {"}
	out = append(out, stmt.Render(inner)...)
	for i, seg := range expr {
		if i == 0 {
			out = append(out, inner+"return "+strings.TrimSpace(seg))
			continue
		}
		out = append(out, opts.Tab+seg)
	}
	last := len(out) - 1
	if opts.Semicolon && !strings.HasSuffix(out[last], ";") {
		out[last] += ";"
	}

	closing := indent + "}" + trailing
	if opts.Semicolon && trailing == "" {
		if _, ok := jsline.ParseAssignment(arrow.Left); ok && !continuesAfter(doc, end) {
			closing += ";"
		}
	}
	out = append(out, closing)

	b := document.NewBatch()
	b.ReplaceLines(line, end+1, out...)
	return Result{
		Batch:    b,
		CallLine: line + 1 + stmt.CallOffset,
		EndLine:  end,
		Block:    document.LineRange{Start: line, End: line + len(out) - 1},
	}, nil
}

// bodyEnd finds the last line of an arrow body that is not a block.
func bodyEnd(doc brackets.Lines, line int, arrow jsline.Arrow, closer brackets.Closer) (int, bool) {
	text := doc.Line(line)
	if brackets.Count(text, brackets.Parenthesis).Balance() > 0 {
		return closer.Close(doc, line, brackets.Parenthesis)
	}
	if arrow.Body != "" && !endsWithOperator(jsline.Code(text)) {
		return line, true
	}
	indent := len(document.Indentation(text))
	for i := line + 1; i < doc.LineCount(); i++ {
		code := jsline.Code(doc.Line(i))
		if code == "" {
			continue
		}
		if strings.HasSuffix(code, ";") {
			return i, true
		}
		next := i + 1
		for next < doc.LineCount() && jsline.IsBlank(doc.Line(next)) {
			next++
		}
		if next >= doc.LineCount() || len(document.Indentation(doc.Line(next))) <= indent {
			return i, true
		}
	}
	return -1, false
}

func endsWithOperator(code string) bool {
	if code == "" {
		return false
	}
	return strings.ContainsRune("+-*/%&|?:,(.=<>", rune(code[len(code)-1]))
}

// splitTrailing separates the body expression from the syntax that belongs
// to the enclosing construct: the first unmatched closing bracket or
// top-level comma, or a final semicolon.
func splitTrailing(segments []string) ([]string, string) {
	depth := 0
	for si, seg := range segments {
		for i := 0; i < len(seg); i++ {
			switch ch := seg[i]; ch {
			case '"', '\'', '`':
				i = skipString(seg, i) - 1
			case '(', '[', '{':
				depth++
			case ')', ']', '}', ',':
				if ch != ',' {
					depth--
				}
				if depth < 0 || (ch == ',' && depth == 0) {
					expr := append([]string(nil), segments[:si]...)
					if head := strings.TrimRight(seg[:i], " \t"); strings.TrimSpace(head) != "" {
						expr = append(expr, head)
					}
					rest := []string{strings.TrimSpace(seg[i:])}
					for _, s := range segments[si+1:] {
						rest = append(rest, strings.TrimSpace(s))
					}
					return expr, strings.Join(rest, " ")
				}
			}
		}
	}

	expr := append([]string(nil), segments...)
	for len(expr) > 0 && strings.TrimSpace(expr[len(expr)-1]) == "" {
		expr = expr[:len(expr)-1]
	}
	if len(expr) == 0 {
		return nil, ""
	}
	last := strings.TrimRight(expr[len(expr)-1], " \t")
	if strings.HasSuffix(last, ";") {
		expr[len(expr)-1] = strings.TrimRight(strings.TrimSuffix(last, ";"), " \t")
		return expr, ";"
	}
	return expr, ""
}

func skipString(s string, pos int) int {
	quote := s[pos]
	pos++
	for pos < len(s) {
		if s[pos] == '\\' {
			pos += 2
			continue
		}
		if s[pos] == quote {
			return pos + 1
		}
		pos++
	}
	return len(s)
}

// continuesAfter reports whether the statement carries on past line end.
func continuesAfter(doc brackets.Lines, end int) bool {
	for i := end + 1; i < doc.LineCount(); i++ {
		code := jsline.Code(doc.Line(i))
		if code == "" {
			continue
		}
		return strings.HasPrefix(code, ".") || strings.HasPrefix(code, ")") || strings.HasPrefix(code, ",")
	}
	return false
}
