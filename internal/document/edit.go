package document

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOverlappingEdits is returned when two edits in one batch touch the same lines.
	ErrOverlappingEdits = errors.New("overlapping edits")
	// ErrEditOutOfRange is returned when an edit addresses lines past the document end.
	ErrEditOutOfRange = errors.New("edit out of range")
)

// Edit replaces lines [StartLine, EndLine) with Lines. StartLine == EndLine is
// a pure insertion before StartLine; a nil Lines slice is a deletion.
type Edit struct {
	StartLine int
	EndLine   int
	Lines     []string
}

func (e Edit) delta() int {
	return len(e.Lines) - (e.EndLine - e.StartLine)
}

// Batch collects edits computed against one snapshot and applies them together.
type Batch struct {
	edits []Edit
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Insert adds lines before line. line == LineCount appends.
func (b *Batch) Insert(line int, lines ...string) {
	b.edits = append(b.edits, Edit{StartLine: line, EndLine: line, Lines: lines})
}

// Delete removes lines [start, end).
func (b *Batch) Delete(start, end int) {
	b.edits = append(b.edits, Edit{StartLine: start, EndLine: end})
}

// Replace swaps the text of a single line.
func (b *Batch) Replace(line int, text string) {
	b.edits = append(b.edits, Edit{StartLine: line, EndLine: line + 1, Lines: []string{text}})
}

// ReplaceLines swaps lines [start, end) for lines as a single edit.
func (b *Batch) ReplaceLines(start, end int, lines ...string) {
	b.edits = append(b.edits, Edit{StartLine: start, EndLine: end, Lines: lines})
}

// Len returns the number of edits in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.edits)
}

// Edits returns the edits ordered by position. Insertions sort before a
// deletion or replacement starting on the same line.
func (b *Batch) Edits() []Edit {
	if b == nil {
		return nil
	}
	edits := append([]Edit(nil), b.edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].StartLine != edits[j].StartLine {
			return edits[i].StartLine < edits[j].StartLine
		}
		return edits[i].EndLine == edits[i].StartLine && edits[j].EndLine != edits[j].StartLine
	})
	return edits
}

// MapLine translates a line number of the pre-edit snapshot into the document
// produced by applying the batch. Lines removed or replaced by an edit map to
// the first line the edit writes.
func (b *Batch) MapLine(line int) int {
	delta := 0
	for _, e := range b.Edits() {
		if e.EndLine <= line {
			delta += e.delta()
			continue
		}
		if e.StartLine <= line {
			return e.StartLine + delta
		}
		break
	}
	return line + delta
}

// Apply commits every edit of the batch or none of them.
func (d *Document) Apply(b *Batch) error {
	edits := b.Edits()
	if len(edits) == 0 {
		return nil
	}
	cur := 0
	for _, e := range edits {
		if e.StartLine < 0 || e.EndLine < e.StartLine || e.EndLine > len(d.lines) {
			return fmt.Errorf("%w: lines %d-%d of %d", ErrEditOutOfRange, e.StartLine, e.EndLine, len(d.lines))
		}
		if e.StartLine < cur {
			return fmt.Errorf("%w: line %d", ErrOverlappingEdits, e.StartLine)
		}
		cur = e.EndLine
	}

	out := make([]string, 0, len(d.lines)+len(edits))
	cur = 0
	for _, e := range edits {
		out = append(out, d.lines[cur:e.StartLine]...)
		out = append(out, e.Lines...)
		cur = e.EndLine
	}
	out = append(out, d.lines[cur:]...)
	if len(out) == 0 {
		out = []string{""}
	}
	d.lines = out
	return nil
}
