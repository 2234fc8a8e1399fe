package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDocument is returned when a command is invoked without a readable document.
var ErrNoDocument = errors.New("no active document")

// Position is a zero-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Selection is the user's current range. Text holds the literal selected text
// when the host already knows it; otherwise it is derived from the document.
type Selection struct {
	Start Position
	End   Position
	Text  string
}

// Cursor returns an empty selection at the given position.
func Cursor(line, column int) Selection {
	p := Position{Line: line, Column: column}
	return Selection{Start: p, End: p}
}

// IsEmpty reports whether the selection covers no text.
func (s Selection) IsEmpty() bool {
	return s.Start == s.End && s.Text == ""
}

// LineRange is an inclusive, contiguous range of lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines covered by the range.
func (r LineRange) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Document is a line-indexed snapshot of a source file.
type Document struct {
	Path         string
	lines        []string
	eol          string
	finalNewline bool
}

// New builds a document from raw text. A trailing line terminator does not
// produce an extra empty line.
func New(path, text string) *Document {
	d := &Document{Path: path, eol: "\n"}
	if strings.Contains(text, "\r\n") {
		d.eol = "\r\n"
	}
	if strings.HasSuffix(text, "\n") {
		d.finalNewline = true
		text = strings.TrimSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\r")
	}
	if text == "" && !d.finalNewline {
		d.lines = []string{""}
		return d
	}
	raw := strings.Split(text, "\n")
	d.lines = make([]string, len(raw))
	for i, line := range raw {
		d.lines[i] = strings.TrimSuffix(line, "\r")
	}
	return d
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, path)
		}
		return nil, err
	}
	return New(path, string(data)), nil
}

// Save writes the document back to its path, keeping the file mode.
func (d *Document) Save() error {
	if d.Path == "" {
		return ErrNoDocument
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(d.Path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(d.Path, []byte(d.Text()), mode)
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns the text of line i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// Lines returns a copy of all lines.
func (d *Document) Lines() []string {
	return append([]string(nil), d.lines...)
}

// Text joins the lines back into file content.
func (d *Document) Text() string {
	text := strings.Join(d.lines, d.eol)
	if d.finalNewline {
		text += d.eol
	}
	return text
}

// FileName returns the base name of the document path.
func (d *Document) FileName() string {
	if d.Path == "" {
		return ""
	}
	return filepath.Base(d.Path)
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.lines = d.Lines()
	return &c
}

// SelectedText resolves the text of a selection: the literal text when
// present, the covered text for a range, or the word under the cursor.
func (d *Document) SelectedText(sel Selection) string {
	if text := strings.TrimSpace(sel.Text); text != "" {
		return text
	}
	if sel.Start == sel.End {
		return d.WordAt(sel.Start)
	}
	start, end := sel.Start, sel.End
	if end.Line < start.Line || (end.Line == start.Line && end.Column < start.Column) {
		start, end = end, start
	}
	if start.Line == end.Line {
		line := d.Line(start.Line)
		return strings.TrimSpace(line[clamp(start.Column, len(line)):clamp(end.Column, len(line))])
	}
	var b strings.Builder
	first := d.Line(start.Line)
	b.WriteString(first[clamp(start.Column, len(first)):])
	for i := start.Line + 1; i < end.Line; i++ {
		b.WriteString("\n")
		b.WriteString(d.Line(i))
	}
	last := d.Line(end.Line)
	b.WriteString("\n")
	b.WriteString(last[:clamp(end.Column, len(last))])
	return strings.TrimSpace(b.String())
}

// WordAt returns the identifier-like word touching the position.
func (d *Document) WordAt(pos Position) string {
	line := d.Line(pos.Line)
	if line == "" {
		return ""
	}
	col := clamp(pos.Column, len(line))
	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end]
}

// Indentation returns the leading whitespace of line.
func Indentation(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func isWordByte(ch byte) bool {
	return ch == '_' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
