// Package classify decides which syntactic context surrounds a selection.
//
// The rules are checked in a fixed order and the first match wins. The
// predicates overlap, so the order is part of the behavior: a decorator line
// must never be read as a template string, an arrow assigned to a variable
// must not be rewritten as an anonymous callback, and so on.
package classify

import (
	"regexp"
	"strings"

	"logsmith/internal/brackets"
	"logsmith/internal/jsline"
)

// Category is the kind of context a selection sits in.
type Category int

const (
	PrimitiveAssignment Category = iota
	ArrayAssignment
	ObjectLiteral
	ObjectFunctionCallAssignment
	NamedFunction
	NamedFunctionAssignment
	MultiLineAnonymousFunction
	MultilineParenthesis
	MultilineBraces
	Decorator
	Ternary
	TemplateString
	NullishCoalescing
	FunctionCallAssignment
)

var categoryNames = map[Category]string{
	PrimitiveAssignment:          "PrimitiveAssignment",
	ArrayAssignment:              "ArrayAssignment",
	ObjectLiteral:                "ObjectLiteral",
	ObjectFunctionCallAssignment: "ObjectFunctionCallAssignment",
	NamedFunction:                "NamedFunction",
	NamedFunctionAssignment:      "NamedFunctionAssignment",
	MultiLineAnonymousFunction:   "MultiLineAnonymousFunction",
	MultilineParenthesis:         "MultilineParenthesis",
	MultilineBraces:              "MultilineBraces",
	Decorator:                    "Decorator",
	Ternary:                      "Ternary",
	TemplateString:               "TemplateString",
	NullishCoalescing:            "NullishCoalescing",
	FunctionCallAssignment:       "FunctionCallAssignment",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Classification is the result of Classify. Line fields are -1 when unset.
type Classification struct {
	Category Category
	// OpeningLine and ClosingLine delimit the multi-line context for
	// MultilineParenthesis, MultilineBraces and Decorator.
	OpeningLine int
	ClosingLine int
	// DeepObjectPath is the full member path of the selection, such as
	// person.address.city, and DeepObjectLine is where its root is declared.
	DeepObjectPath string
	DeepObjectLine int
	// FunctionLine is the declaration line for NamedFunction.
	FunctionLine int
}

func newClassification(cat Category) Classification {
	return Classification{
		Category:       cat,
		OpeningLine:    -1,
		ClosingLine:    -1,
		DeepObjectLine: -1,
		FunctionLine:   -1,
	}
}

// Classifier runs the rule table. The zero value uses brackets.Default.
type Classifier struct {
	Closer brackets.Closer
}

// Classify uses a zero Classifier.
func Classify(doc brackets.Lines, line int, name string) Classification {
	return Classifier{}.Classify(doc, line, name)
}

type input struct {
	doc    brackets.Lines
	closer brackets.Closer
	line   int
	text   string
	name   string
}

func (in *input) next() string {
	return in.doc.Line(in.line + 1)
}

// nextCode returns the code of the first non-blank, non-comment line after
// the selection, or "".
func (in *input) nextCode() string {
	for i := in.line + 1; i < in.doc.LineCount(); i++ {
		text := in.doc.Line(i)
		if jsline.IsBlank(text) || jsline.IsComment(text) {
			continue
		}
		return jsline.Code(text)
	}
	return ""
}

type rule struct {
	name  string
	match func(in *input) (Classification, bool)
}

// rules is evaluated top to bottom.
var rules = []rule{
	{"decorator", matchDecorator},
	{"backtick", matchBacktick},
	{"array", matchArray},
	{"object", matchObject},
	{"object-call", matchObjectCall},
	{"named-function", matchNamedFunction},
	{"function-assignment", matchFunctionAssignment},
	{"anonymous-function", matchAnonymousFunction},
	{"multiline-parenthesis", matchMultilineParenthesis},
	{"multiline-braces", matchMultilineBraces},
	{"nullish", matchNullish},
	{"call", matchCall},
}

// Classify returns the category of the first matching rule, or
// PrimitiveAssignment.
func (c Classifier) Classify(doc brackets.Lines, line int, name string) Classification {
	closer := c.Closer
	if closer == nil {
		closer = brackets.Default
	}
	in := &input{doc: doc, closer: closer, line: line, text: doc.Line(line), name: name}

	result := newClassification(PrimitiveAssignment)
	for _, r := range rules {
		if cls, ok := r.match(in); ok {
			result = cls
			break
		}
	}
	if result.DeepObjectPath == "" && strings.Contains(name, ".") {
		result.DeepObjectPath = name
		result.DeepObjectLine = line
	}
	return result
}

var decoratorLine = regexp.MustCompile(`^@[A-Za-z_$][\w$.]*`)

func matchDecorator(in *input) (Classification, bool) {
	if !decoratorLine.MatchString(strings.TrimSpace(in.text)) {
		return Classification{}, false
	}
	cls := newClassification(Decorator)
	cls.OpeningLine = in.line
	cls.ClosingLine = in.line
	if brackets.Count(in.text, brackets.Parenthesis).Opened > 0 {
		if end, ok := in.closer.Close(in.doc, in.line, brackets.Parenthesis); ok {
			cls.ClosingLine = end
		} else {
			cls.ClosingLine = -1
		}
	}
	return cls, true
}

func matchBacktick(in *input) (Classification, bool) {
	if jsline.CountBackticks(in.text) == 0 {
		return Classification{}, false
	}
	if a, ok := jsline.ParseAssignment(in.text); ok && strings.HasPrefix(a.RHS, "`") {
		return newClassification(TemplateString), true
	}
	return newClassification(Ternary), true
}

// assignedValue returns the right-hand side of an assignment to the selected
// name, reading the next line when the value starts there.
func assignedValue(in *input) (string, bool) {
	a, ok := jsline.AssignsTo(in.text, in.name)
	if !ok {
		return "", false
	}
	if a.RHS == "" {
		return in.nextCode(), true
	}
	return a.RHS, true
}

func matchArray(in *input) (Classification, bool) {
	rhs, ok := assignedValue(in)
	if !ok || !strings.HasPrefix(rhs, "[") {
		return Classification{}, false
	}
	return newClassification(ArrayAssignment), true
}

func matchObject(in *input) (Classification, bool) {
	a, ok := jsline.AssignsTo(in.text, in.name)
	if !ok {
		return Classification{}, false
	}
	combined := strings.TrimSpace(a.RHS + " " + jsline.Code(in.next()))
	if !strings.HasPrefix(combined, "{") {
		return Classification{}, false
	}
	return newClassification(ObjectLiteral), true
}

var (
	objectCall = regexp.MustCompile(`^(?:await\s+)?(?:new\s+)?[A-Za-z_$][\w$]*(?:\s*\??\.\s*[A-Za-z_$][\w$]*)+\s*(?:<[^>]*>)?\s*\(`)
	plainCall  = regexp.MustCompile(`^(?:await\s+)?(?:new\s+)?[A-Za-z_$][\w$]*\s*(?:<[^>]*>)?\s*\(`)
)

func matchObjectCall(in *input) (Classification, bool) {
	a, ok := jsline.AssignsTo(in.text, in.name)
	if !ok || !objectCall.MatchString(a.RHS) {
		return Classification{}, false
	}
	return newClassification(ObjectFunctionCallAssignment), true
}

func matchNamedFunction(in *input) (Classification, bool) {
	_, declared := jsline.FunctionName(in.text)
	if !declared {
		arrow, ok := jsline.ParseArrow(in.text)
		declared = ok && arrow.BlockBody()
	}
	if !declared || !jsline.ParamsContain(in.text, in.name) {
		return Classification{}, false
	}
	cls := newClassification(NamedFunction)
	cls.FunctionLine = in.line
	return cls, true
}

func matchFunctionAssignment(in *input) (Classification, bool) {
	a, ok := jsline.ParseAssignment(in.text)
	if !ok || !jsline.IsFunctionValue(a.RHS) {
		return Classification{}, false
	}
	if !jsline.ContainsIdentifier(a.RHS, in.name) && !jsline.ContainsIdentifier(a.LHS, in.name) {
		return Classification{}, false
	}
	return newClassification(NamedFunctionAssignment), true
}

func matchAnonymousFunction(in *input) (Classification, bool) {
	arrow, ok := jsline.ParseArrow(in.text)
	if !ok || arrow.BlockBody() || !jsline.ContainsIdentifier(arrow.Params, in.name) {
		return Classification{}, false
	}
	if arrow.Body == "" && strings.HasPrefix(in.nextCode(), "{") {
		return Classification{}, false
	}
	return newClassification(MultiLineAnonymousFunction), true
}

func matchMultilineParenthesis(in *input) (Classification, bool) {
	counts := brackets.Count(in.text, brackets.Parenthesis)
	if counts.Balance() > 0 && strings.Contains(in.doc.Line(in.line-1), "{") {
		cls := newClassification(MultilineParenthesis)
		cls.OpeningLine = in.line
		if end, ok := in.closer.Close(in.doc, in.line, brackets.Parenthesis); ok {
			cls.ClosingLine = end
		}
		return cls, true
	}

	group, ok := brackets.Enclosing(in.doc, in.line, brackets.Parenthesis)
	if !ok {
		return Classification{}, false
	}
	if brace, ok := brackets.Enclosing(in.doc, in.line, brackets.CurlyBrace); ok && brace.After(group) {
		return Classification{}, false
	}
	cls := newClassification(MultilineParenthesis)
	cls.OpeningLine = group.OpenLine
	cls.ClosingLine = group.CloseLine
	return cls, true
}

func matchMultilineBraces(in *input) (Classification, bool) {
	group, ok := brackets.Enclosing(in.doc, in.line, brackets.CurlyBrace)
	if !ok {
		return Classification{}, false
	}
	if paren, ok := brackets.Enclosing(in.doc, in.line, brackets.Parenthesis); ok && paren.After(group) {
		return Classification{}, false
	}
	if jsline.OpensBlock(blockHeader(in, group)) {
		return Classification{}, false
	}
	cls := newClassification(MultilineBraces)
	cls.OpeningLine = group.OpenLine
	cls.ClosingLine = group.CloseLine
	if path, root, ok := objectPath(in, group); ok {
		cls.DeepObjectPath = path
		cls.DeepObjectLine = root.OpenLine
		cls.ClosingLine = root.CloseLine
	}
	return cls, true
}

// blockHeader returns the code in front of the group's {. A brace alone on
// its line takes the previous code line as its header.
func blockHeader(in *input, group brackets.Group) string {
	opener := in.doc.Line(group.OpenLine)
	header := jsline.StripComment(opener[:group.OpenCol])
	if strings.TrimSpace(header) != "" {
		return header
	}
	for i := group.OpenLine - 1; i >= 0; i-- {
		text := in.doc.Line(i)
		if jsline.IsBlank(text) || jsline.IsComment(text) {
			continue
		}
		return jsline.Code(text)
	}
	return ""
}

var (
	propertyKey  = regexp.MustCompile(`^([A-Za-z_$][\w$]*)\s*(?::|,|$)`)
	nestedKey    = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*:\s*$`)
	rootVariable = regexp.MustCompile(`(?:^|\s)([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\s*(?::[^=]+)?=\s*$`)
)

// objectPath builds the member path of a property key selected inside a
// nested object literal, walking outward until the variable the literal is
// assigned to.
func objectPath(in *input, group brackets.Group) (string, brackets.Group, bool) {
	m := propertyKey.FindStringSubmatch(jsline.Code(in.text))
	if m == nil || m[1] != in.name {
		return "", brackets.Group{}, false
	}
	path := []string{in.name}
	cur := group
	for {
		prefix := jsline.StripComment(in.doc.Line(cur.OpenLine)[:cur.OpenCol])
		if root := rootVariable.FindStringSubmatch(prefix); root != nil {
			path = append([]string{root[1]}, path...)
			return strings.Join(path, "."), cur, true
		}
		key := nestedKey.FindStringSubmatch(prefix)
		if key == nil {
			return "", brackets.Group{}, false
		}
		path = append([]string{key[1]}, path...)
		outer, ok := brackets.Enclosing(in.doc, cur.OpenLine, brackets.CurlyBrace)
		if !ok {
			return "", brackets.Group{}, false
		}
		cur = outer
	}
}

// nullishWindow is how many lines an assignment may span and still be read
// as one nullish coalescing expression.
const nullishWindow = 5

func matchNullish(in *input) (Classification, bool) {
	if _, ok := jsline.AssignsTo(in.text, in.name); !ok {
		return Classification{}, false
	}
	var joined strings.Builder
	for i := in.line; i < in.line+nullishWindow && i < in.doc.LineCount(); i++ {
		code := jsline.Code(in.doc.Line(i))
		joined.WriteString(code)
		joined.WriteByte(' ')
		if strings.HasSuffix(code, ";") {
			break
		}
	}
	if !strings.Contains(joined.String(), "??") {
		return Classification{}, false
	}
	return newClassification(NullishCoalescing), true
}

func matchCall(in *input) (Classification, bool) {
	a, ok := jsline.AssignsTo(in.text, in.name)
	if !ok || !plainCall.MatchString(a.RHS) {
		return Classification{}, false
	}
	return newClassification(FunctionCallAssignment), true
}
