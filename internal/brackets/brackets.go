// Package brackets counts bracket characters and locates the line where a
// bracketed construct returns to balance.
//
// Counting is purely literal: brackets inside strings, comments and template
// literals are counted like any other. Callers rely on that being stable.
package brackets

// Kind selects which bracket pair is counted.
type Kind int

const (
	Parenthesis Kind = iota
	CurlyBrace
	SquareBracket
)

// Pair returns the opening and closing characters of the kind.
func (k Kind) Pair() (open, close byte) {
	switch k {
	case CurlyBrace:
		return '{', '}'
	case SquareBracket:
		return '[', ']'
	default:
		return '(', ')'
	}
}

func (k Kind) String() string {
	switch k {
	case CurlyBrace:
		return "curly"
	case SquareBracket:
		return "square"
	default:
		return "parenthesis"
	}
}

// Counts holds the number of opening and closing brackets found on a line.
type Counts struct {
	Opened int
	Closed int
}

// Balance returns Opened - Closed.
func (c Counts) Balance() int {
	return c.Opened - c.Closed
}

// Count tallies the brackets of one kind on a single line.
func Count(line string, kind Kind) Counts {
	open, close := kind.Pair()
	var c Counts
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case open:
			c.Opened++
		case close:
			c.Closed++
		}
	}
	return c
}

// Lines is the read-only, line-indexed view the scanners work on.
type Lines interface {
	LineCount() int
	Line(i int) string
}

// Closer finds the line where a construct balances. Implementations return
// ok=false when the document ends before balance is reached; callers then
// fall back to the line after the start.
type Closer interface {
	Close(doc Lines, startLine int, kind Kind) (int, bool)
	Open(doc Lines, startLine int, kind Kind) (int, bool)
}

// LineCloser is the default Closer. It accumulates whole-line counts.
type LineCloser struct{}

// Close walks forward from startLine until the opened and closed counts are
// equal and returns that line. The start line itself may be the result.
func (LineCloser) Close(doc Lines, startLine int, kind Kind) (int, bool) {
	if startLine < 0 {
		return -1, false
	}
	var total Counts
	for i := startLine; i < doc.LineCount(); i++ {
		c := Count(doc.Line(i), kind)
		total.Opened += c.Opened
		total.Closed += c.Closed
		if total.Opened == total.Closed {
			return i, true
		}
	}
	return -1, false
}

// Open walks backward from startLine until the counts are equal, locating the
// line that owns a construct whose closing part was seen first.
func (LineCloser) Open(doc Lines, startLine int, kind Kind) (int, bool) {
	if startLine >= doc.LineCount() {
		return -1, false
	}
	var total Counts
	for i := startLine; i >= 0; i-- {
		c := Count(doc.Line(i), kind)
		total.Opened += c.Opened
		total.Closed += c.Closed
		if total.Opened == total.Closed {
			return i, true
		}
	}
	return -1, false
}

// Default is the closer used when none is configured.
var Default Closer = LineCloser{}

// Group is a bracketed region located at character precision.
type Group struct {
	Kind      Kind
	OpenLine  int
	OpenCol   int
	CloseLine int
	CloseCol  int
}

// After reports whether g opens later in the document than other, which makes
// g the inner of two groups that both contain the same position.
func (g Group) After(other Group) bool {
	if g.OpenLine != other.OpenLine {
		return g.OpenLine > other.OpenLine
	}
	return g.OpenCol > other.OpenCol
}

// Enclosing returns the innermost group of kind that is open at the start of
// line. The group must close on or after line; an opener without a matching
// closer yields ok=false.
func Enclosing(doc Lines, line int, kind Kind) (Group, bool) {
	if line <= 0 || line >= doc.LineCount() {
		return Group{}, false
	}
	open, close := kind.Pair()

	openLine, openCol := -1, -1
	depth := 0
scan:
	for i := line - 1; i >= 0; i-- {
		text := doc.Line(i)
		for j := len(text) - 1; j >= 0; j-- {
			switch text[j] {
			case close:
				depth++
			case open:
				if depth == 0 {
					openLine, openCol = i, j
					break scan
				}
				depth--
			}
		}
	}
	if openLine < 0 {
		return Group{}, false
	}

	closeLine, closeCol, ok := matchForward(doc, openLine, openCol, open, close)
	if !ok || closeLine < line {
		return Group{}, false
	}
	return Group{Kind: kind, OpenLine: openLine, OpenCol: openCol, CloseLine: closeLine, CloseCol: closeCol}, true
}

func matchForward(doc Lines, line, col int, open, close byte) (int, int, bool) {
	depth := 0
	for i := line; i < doc.LineCount(); i++ {
		text := doc.Line(i)
		start := 0
		if i == line {
			start = col
		}
		for j := start; j < len(text); j++ {
			switch text[j] {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return i, j, true
				}
			}
		}
	}
	return -1, -1, false
}
