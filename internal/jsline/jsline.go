// Package jsline holds single-line lexical predicates for JavaScript and
// TypeScript source. Nothing here parses more than one line at a time.
package jsline

import (
	"regexp"
	"strings"
	"unicode"
)

var controlFlowKeywords = map[string]bool{
	"if":     true,
	"else":   true,
	"for":    true,
	"while":  true,
	"switch": true,
	"catch":  true,
	"do":     true,
	"return": true,
	"with":   true,
}

// IsControlFlow reports whether word is a keyword that reads like a call
// when followed by a parenthesis.
func IsControlFlow(word string) bool {
	return controlFlowKeywords[word]
}

func IsIdentifierStart(ch byte) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(rune(ch))
}

func IsIdentifierPart(ch byte) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch))
}

// IsBlank reports whether line has no visible characters.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsComment reports whether the trimmed line is a comment line.
func IsComment(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*")
}

// ContainsIdentifier reports whether name occurs in text on identifier
// boundaries. Dotted paths such as user.name are matched as a whole.
func ContainsIdentifier(text, name string) bool {
	if name == "" {
		return false
	}
	for from := 0; from <= len(text)-len(name); {
		idx := strings.Index(text[from:], name)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(name)
		before := start == 0 || !IsIdentifierPart(text[start-1])
		after := end == len(text) || !IsIdentifierPart(text[end])
		if before && after {
			return true
		}
		from = start + 1
	}
	return false
}

// StripComment removes a trailing // or single-line /* */ comment that is not
// inside a string literal.
func StripComment(line string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch ch {
		case '"', '\'', '`':
			end := skipString(line, i)
			b.WriteString(line[i:end])
			i = end - 1
			continue
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return strings.TrimRight(b.String(), " \t")
			}
			if i+1 < len(line) && line[i+1] == '*' {
				if end := strings.Index(line[i+2:], "*/"); end >= 0 {
					i += end + 3
					continue
				}
				return strings.TrimRight(b.String(), " \t")
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func skipString(line string, pos int) int {
	quote := line[pos]
	pos++
	for pos < len(line) {
		ch := line[pos]
		if ch == '\\' {
			pos += 2
			continue
		}
		pos++
		if ch == quote {
			break
		}
	}
	if pos > len(line) {
		return len(line)
	}
	return pos
}

// Code returns the line without its comment and surrounding whitespace.
func Code(line string) string {
	return strings.TrimSpace(StripComment(line))
}

// Assignment is a line of the form `lhs = rhs`.
type Assignment struct {
	// LHS is the assigned target with declaration keywords and type
	// annotations removed.
	LHS string
	// RHS is everything after the operator, trimmed. It may be empty when
	// the value continues on the next line.
	RHS string
	// Declared is set for const, let and var declarations.
	Declared bool
}

var declPrefix = regexp.MustCompile(`^(?:(?:export|default|declare|public|private|protected|static|readonly)\s+)*(const|let|var)?\s*`)

// ParseAssignment finds the first assignment operator outside of brackets
// and strings. Comparisons, arrows and default parameters are not
// assignments.
func ParseAssignment(line string) (Assignment, bool) {
	code := Code(line)
	depth := 0
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch ch {
		case '"', '\'', '`':
			i = skipString(code, i) - 1
			continue
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			depth--
			continue
		case '=':
		default:
			continue
		}
		if depth != 0 {
			continue
		}
		if i+1 < len(code) && (code[i+1] == '=' || code[i+1] == '>') {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>", code[i-1]) >= 0 {
			continue
		}
		lhs := strings.TrimRight(code[:i], "+-*/%&|^?")
		lhs = strings.TrimSpace(lhs)
		if lhs == "" {
			return Assignment{}, false
		}
		a := Assignment{RHS: strings.TrimSpace(code[i+1:])}
		if m := declPrefix.FindStringSubmatchIndex(lhs); m != nil {
			a.Declared = m[2] >= 0
			lhs = lhs[m[1]:]
		}
		a.LHS = stripTypeAnnotation(lhs)
		if a.LHS == "" {
			return Assignment{}, false
		}
		return a, true
	}
	return Assignment{}, false
}

// stripTypeAnnotation removes `: Type` from a declaration target while keeping
// destructuring patterns like `{ a: b }` intact.
func stripTypeAnnotation(lhs string) string {
	depth := 0
	for i := 0; i < len(lhs); i++ {
		switch lhs[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(lhs[:i])
			}
		}
	}
	return strings.TrimRight(strings.TrimSpace(lhs), "!")
}

// AssignsTo reports whether the line assigns to a target mentioning name.
func AssignsTo(line, name string) (Assignment, bool) {
	a, ok := ParseAssignment(line)
	if !ok || !ContainsIdentifier(a.LHS, name) {
		return Assignment{}, false
	}
	return a, true
}

// Arrow describes the first arrow function on a line.
type Arrow struct {
	// Left is the line up to and including the parameter list.
	Left string
	// Params is the parameter list without surrounding parentheses.
	Params string
	// Body is the trimmed text after =>, empty when the body starts on the
	// next line.
	Body string
	// Index is the byte offset of => in the line.
	Index int
}

// BlockBody reports whether the arrow's body is a { } block.
func (a Arrow) BlockBody() bool {
	return strings.HasPrefix(a.Body, "{")
}

// ParseArrow locates `params => body` on the line.
func ParseArrow(line string) (Arrow, bool) {
	idx := arrowIndex(line)
	if idx < 0 {
		return Arrow{}, false
	}
	left := strings.TrimRight(line[:idx], " \t")
	a := Arrow{Left: left, Body: strings.TrimSpace(StripComment(line[idx+2:])), Index: idx}

	end := len(left)
	// (a, b) => or (a): Foo =>
	if closeIdx := strings.LastIndexByte(left, ')'); closeIdx >= 0 {
		rest := strings.TrimSpace(left[closeIdx+1:])
		if p := matchingOpen(left, closeIdx); p >= 0 && (rest == "" || strings.HasPrefix(rest, ":")) {
			a.Params = left[p+1 : closeIdx]
			return a, true
		}
	}
	start := end
	for start > 0 && IsIdentifierPart(left[start-1]) {
		start--
	}
	if start == end {
		return Arrow{}, false
	}
	a.Params = left[start:end]
	return a, true
}

func arrowIndex(line string) int {
	for i := 0; i+1 < len(line); i++ {
		switch line[i] {
		case '"', '\'', '`':
			i = skipString(line, i) - 1
		case '/':
			if line[i+1] == '/' {
				return -1
			}
		case '=':
			if line[i+1] == '>' {
				return i
			}
		}
	}
	return -1
}

func matchingOpen(text string, closeIdx int) int {
	if closeIdx < 0 {
		return -1
	}
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch text[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	functionKeyword = regexp.MustCompile(`\bfunction\s*\*?\s*([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`)
	methodSignature = regexp.MustCompile(`^(?:(?:public|private|protected|static|async|override|readonly|abstract|get|set)\s+)*\*?\s*([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`)
	propertyFunc    = regexp.MustCompile(`^([A-Za-z_$][\w$]*)\s*:\s*(?:async\s+)?(?:function\b|\(|[A-Za-z_$][\w$]*\s*=>)`)
	classDecl       = regexp.MustCompile(`^(?:(?:export|default|declare|abstract)\s+)*class\s+([A-Za-z_$][\w$]*)`)
	functionValue   = regexp.MustCompile(`^(?:async\s+)?(?:function\b|\(|[A-Za-z_$][\w$]*\s*=>)`)
	typeBlock       = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?(?:interface|enum|namespace|module)\b`)
	declaresBlock   = regexp.MustCompile(`\b(?:class|function)\b`)
	caseLabel       = regexp.MustCompile(`(?:^|[;{}]\s*)(?:case\b.*|default\s*):$`)
)

// ClassName returns the class declared on the line.
func ClassName(line string) (string, bool) {
	m := classDecl.FindStringSubmatch(Code(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FunctionName returns the name of a function declared on the line: a
// function declaration, a method signature, an object property holding a
// function, or a function assigned to a variable.
func FunctionName(line string) (string, bool) {
	code := Code(line)
	if code == "" {
		return "", false
	}
	if m := functionKeyword.FindStringSubmatch(code); m != nil {
		return m[1], true
	}
	if m := propertyFunc.FindStringSubmatch(code); m != nil && !IsControlFlow(m[1]) {
		return m[1], true
	}
	if a, ok := ParseAssignment(code); ok && IsFunctionValue(a.RHS) {
		name := a.LHS
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if isIdentifier(name) {
			return name, true
		}
	}
	if m := methodSignature.FindStringSubmatchIndex(code); m != nil {
		name := code[m[2]:m[3]]
		if IsControlFlow(name) || name == "function" || name == "new" || name == "await" || name == "typeof" {
			return "", false
		}
		open := m[1] - 1
		closeIdx := matchingClose(code, open)
		if closeIdx < 0 {
			// Parameters continue on the next lines.
			if strings.HasSuffix(code, "(") || strings.HasSuffix(code, ",") {
				return name, true
			}
			return "", false
		}
		rest := strings.TrimSpace(code[closeIdx+1:])
		if strings.HasPrefix(rest, ":") {
			if brace := strings.IndexByte(rest, '{'); brace >= 0 && !strings.Contains(rest[:brace], "=>") {
				rest = rest[brace:]
			}
		}
		if strings.HasPrefix(rest, "{") {
			return name, true
		}
	}
	return "", false
}

// IsFunctionValue reports whether an assigned value starts a function.
func IsFunctionValue(rhs string) bool {
	if !functionValue.MatchString(rhs) {
		return false
	}
	if strings.HasPrefix(strings.TrimPrefix(rhs, "async "), "(") {
		// A parenthesised expression is only a function when an arrow follows.
		return strings.Contains(rhs, "=>")
	}
	return true
}

// ParamsContain reports whether the parameter list of the function declared
// on the line mentions name. It covers function keyword declarations,
// method signatures and arrow functions.
func ParamsContain(line, name string) bool {
	code := Code(line)
	if arrow, ok := ParseArrow(code); ok && ContainsIdentifier(arrow.Params, name) {
		return true
	}
	var open int
	if m := functionKeyword.FindStringIndex(code); m != nil {
		open = m[1] - 1
	} else if m := methodSignature.FindStringSubmatchIndex(code); m != nil && !IsControlFlow(code[m[2]:m[3]]) {
		open = m[1] - 1
	} else {
		return false
	}
	closeIdx := matchingClose(code, open)
	if closeIdx < 0 {
		closeIdx = len(code)
	}
	return ContainsIdentifier(code[open+1:closeIdx], name)
}

func matchingClose(text string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentifier(s string) bool {
	if s == "" || !IsIdentifierStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentifierPart(s[i]) {
			return false
		}
	}
	return true
}

// CountBackticks returns the number of unescaped backticks on the line.
func CountBackticks(line string) int {
	n := 0
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == '`' {
			n++
		}
	}
	return n
}

// OpensBlock reports whether the text in front of a { makes it a code block
// rather than an object literal or destructuring pattern.
func OpensBlock(before string) bool {
	b := strings.TrimSpace(before)
	if b == "" {
		return false
	}
	if strings.HasSuffix(b, ")") || strings.HasSuffix(b, "=>") {
		return true
	}
	last := b
	if i := strings.LastIndexFunc(b, func(r rune) bool { return r > 127 || !IsIdentifierPart(byte(r)) }); i >= 0 {
		last = b[i+1:]
	}
	switch last {
	case "else", "try", "finally", "do", "static":
		return true
	}
	if _, ok := ClassName(b); ok {
		return true
	}
	if caseLabel.MatchString(b) || typedSignature(b) {
		return true
	}
	return typeBlock.MatchString(b) || declaresBlock.MatchString(b)
}

// typedSignature reports whether b is a method signature followed by a
// return type, as in `get total(): number`.
func typedSignature(b string) bool {
	m := methodSignature.FindStringSubmatchIndex(b)
	if m == nil || IsControlFlow(b[m[2]:m[3]]) {
		return false
	}
	closeIdx := matchingClose(b, m[1]-1)
	if closeIdx < 0 {
		return false
	}
	rest := strings.TrimSpace(b[closeIdx+1:])
	return len(rest) > 1 && rest[0] == ':'
}
