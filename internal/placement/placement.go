// Package placement computes the line a debug statement is inserted at.
package placement

import (
	"regexp"
	"strings"

	"logsmith/internal/brackets"
	"logsmith/internal/classify"
	"logsmith/internal/jsline"
)

// Resolver dispatches on the classification category. The zero value uses
// brackets.Default.
type Resolver struct {
	Closer brackets.Closer
}

// ResolveLine uses a zero Resolver.
func ResolveLine(doc brackets.Lines, line int, name string, cls classify.Classification) int {
	return Resolver{}.ResolveLine(doc, line, name, cls)
}

type strategy func(r Resolver, doc brackets.Lines, line int, name string, cls classify.Classification) int

var strategies = map[classify.Category]strategy{
	classify.PrimitiveAssignment:          primitive,
	classify.ArrayAssignment:              closingOf(brackets.SquareBracket),
	classify.ObjectLiteral:                closingOf(brackets.CurlyBrace),
	classify.NamedFunction:                namedFunction,
	classify.NamedFunctionAssignment:      functionAssignment,
	classify.FunctionCallAssignment:       functionCall,
	classify.ObjectFunctionCallAssignment: functionCall,
	classify.MultilineParenthesis:         afterContext,
	classify.MultilineBraces:              afterContext,
	classify.Decorator:                    afterContext,
	classify.Ternary:                      backticks,
	classify.TemplateString:               backticks,
	classify.NullishCoalescing:            nullish,
	classify.MultiLineAnonymousFunction:   nextLine,
}

// ResolveLine returns the insertion line, always within [line, LineCount].
// A line equal to LineCount appends to the document.
func (r Resolver) ResolveLine(doc brackets.Lines, line int, name string, cls classify.Classification) int {
	if r.Closer == nil {
		r.Closer = brackets.Default
	}
	s, ok := strategies[cls.Category]
	if !ok {
		s = nextLine
	}
	return clamp(s(r, doc, line, name, cls), line, doc.LineCount())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nextLine(_ Resolver, _ brackets.Lines, line int, _ string, _ classify.Classification) int {
	return line + 1
}

func primitive(r Resolver, doc brackets.Lines, line int, _ string, _ classify.Classification) int {
	code := jsline.Code(doc.Line(line))
	if !strings.HasSuffix(code, "=") && !strings.HasSuffix(code, ":") {
		return line + 1
	}
	value := line + 1
	for value < doc.LineCount() && jsline.IsBlank(doc.Line(value)) {
		value++
	}
	if value >= doc.LineCount() {
		return line + 1
	}
	end := value
	for _, kind := range []brackets.Kind{brackets.Parenthesis, brackets.CurlyBrace, brackets.SquareBracket} {
		if brackets.Count(doc.Line(value), kind).Balance() <= 0 {
			continue
		}
		if closing, ok := r.Closer.Close(doc, value, kind); ok && closing > end {
			end = closing
		}
	}
	end++
	for end < doc.LineCount() && strings.HasPrefix(strings.TrimSpace(doc.Line(end)), ".") {
		end++
	}
	return end
}

func closingOf(kind brackets.Kind) strategy {
	return func(r Resolver, doc brackets.Lines, line int, _ string, _ classify.Classification) int {
		start := line
		if brackets.Count(doc.Line(line), kind).Opened == 0 {
			// The literal opens on the following line.
			start = line + 1
			for start < doc.LineCount() && jsline.IsBlank(doc.Line(start)) {
				start++
			}
		}
		if closing, ok := r.Closer.Close(doc, start, kind); ok {
			return closing + 1
		}
		return line + 1
	}
}

// namedFunction inserts as the first statement of the body.
func namedFunction(r Resolver, doc brackets.Lines, line int, _ string, cls classify.Classification) int {
	decl := line
	if cls.FunctionLine >= 0 {
		decl = cls.FunctionLine
	}
	if strings.Contains(jsline.Code(doc.Line(decl)), "{") {
		return decl + 1
	}
	params, ok := r.Closer.Close(doc, decl, brackets.Parenthesis)
	if !ok {
		return line + 1
	}
	for i := params; i < doc.LineCount() && i <= params+1; i++ {
		if strings.Contains(jsline.Code(doc.Line(i)), "{") {
			return i + 1
		}
	}
	return params + 1
}

func functionAssignment(r Resolver, doc brackets.Lines, line int, name string, _ classify.Classification) int {
	if a, ok := jsline.ParseAssignment(doc.Line(line)); ok &&
		strings.Contains(a.RHS, "{") && jsline.ContainsIdentifier(a.RHS, name) {
		return line + 1
	}
	params, ok := r.Closer.Close(doc, line, brackets.Parenthesis)
	if !ok {
		return line + 1
	}
	body, ok := r.Closer.Close(doc, params, brackets.CurlyBrace)
	if !ok {
		return params + 1
	}
	return body + 1
}

func functionCall(_ Resolver, doc brackets.Lines, line int, name string, _ classify.Classification) int {
	text := doc.Line(line)
	// The selection is the first argument of the call.
	if idx := strings.Index(text, "("+name); idx >= 0 {
		end := idx + 1 + len(name)
		if end == len(text) || !jsline.IsIdentifierPart(text[end]) {
			return line + 1
		}
	}

	depth, ticks := 0, 0
	for i := line; i < doc.LineCount(); i++ {
		current := doc.Line(i)
		depth += brackets.Count(current, brackets.Parenthesis).Balance()
		ticks += jsline.CountBackticks(current)
		if depth > 0 || ticks%2 != 0 {
			continue
		}
		if continuesChain(doc, i) {
			continue
		}
		return i + 1
	}
	return line + 1
}

// continuesChain reports whether the call chain carries on after line i.
func continuesChain(doc brackets.Lines, i int) bool {
	if strings.HasSuffix(jsline.Code(doc.Line(i)), ".") {
		return true
	}
	for j := i + 1; j < doc.LineCount(); j++ {
		next := doc.Line(j)
		if jsline.IsBlank(next) {
			continue
		}
		return strings.HasPrefix(strings.TrimSpace(next), ".")
	}
	return false
}

func afterContext(_ Resolver, _ brackets.Lines, line int, _ string, cls classify.Classification) int {
	if cls.ClosingLine < 0 {
		return line + 1
	}
	return cls.ClosingLine + 1
}

func backticks(_ Resolver, doc brackets.Lines, line int, _ string, _ classify.Classification) int {
	ticks := 0
	for i := line; i < doc.LineCount(); i++ {
		ticks += jsline.CountBackticks(doc.Line(i))
		if ticks%2 == 0 {
			return i + 1
		}
	}
	return line + 1
}

const nullishWindow = 5

var nullishAssignment = regexp.MustCompile(`[A-Za-z_$][\w$.]*\s*(?::[^=]+)?[^=!<>]=[^=>].*\S\s*\?\?\s*\S`)

func nullish(_ Resolver, doc brackets.Lines, line int, _ string, _ classify.Classification) int {
	var joined strings.Builder
	depth := 0
	for i := line; i < line+nullishWindow && i < doc.LineCount(); i++ {
		code := jsline.Code(doc.Line(i))
		joined.WriteString(code)
		joined.WriteByte(' ')
		depth += brackets.Count(code, brackets.Parenthesis).Balance()
		if depth > 0 || !nullishAssignment.MatchString(joined.String()) {
			continue
		}
		if !continuesExpression(code, jsline.Code(doc.Line(i+1))) {
			return i + 1
		}
	}
	return line + 1
}

func continuesExpression(current, next string) bool {
	for _, suffix := range []string{"??", "||", "&&", "(", ",", "=", "+", "-", "?", ":"} {
		if strings.HasSuffix(current, suffix) {
			return true
		}
	}
	for _, prefix := range []string{"??", "||", "&&", ".", "?", ":", "+", "-", ")"} {
		if strings.HasPrefix(next, prefix) {
			return true
		}
	}
	return false
}
