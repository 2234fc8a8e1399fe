package document

import (
	"bytes"

	"github.com/sourcegraph/go-diff/diff"
)

const diffContext = 3

// UnifiedDiff renders the batch as a unified diff against the document it was
// computed from. Nearby edits share a hunk.
func UnifiedDiff(d *Document, b *Batch) ([]byte, error) {
	edits := b.Edits()
	if len(edits) == 0 {
		return nil, nil
	}

	name := d.Path
	if name == "" {
		name = "untitled"
	}
	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
	}

	shift := 0
	for start := 0; start < len(edits); {
		end := start + 1
		for end < len(edits) && edits[end].StartLine-edits[end-1].EndLine <= 2*diffContext {
			end++
		}
		group := edits[start:end]
		hunk, delta := buildHunk(d, group, shift)
		fd.Hunks = append(fd.Hunks, hunk)
		shift += delta
		start = end
	}
	return diff.PrintFileDiff(fd)
}

func buildHunk(d *Document, group []Edit, shift int) (*diff.Hunk, int) {
	origStart := group[0].StartLine - diffContext
	if origStart < 0 {
		origStart = 0
	}
	origEnd := group[len(group)-1].EndLine + diffContext
	if origEnd > d.LineCount() {
		origEnd = d.LineCount()
	}

	var body bytes.Buffer
	delta := 0
	cur := origStart
	for _, e := range group {
		for ; cur < e.StartLine; cur++ {
			writeDiffLine(&body, ' ', d.Line(cur))
		}
		for i := e.StartLine; i < e.EndLine; i++ {
			writeDiffLine(&body, '-', d.Line(i))
		}
		for _, line := range e.Lines {
			writeDiffLine(&body, '+', line)
		}
		cur = e.EndLine
		delta += e.delta()
	}
	for ; cur < origEnd; cur++ {
		writeDiffLine(&body, ' ', d.Line(cur))
	}

	origLines := origEnd - origStart
	return &diff.Hunk{
		OrigStartLine: int32(origStart + 1),
		OrigLines:     int32(origLines),
		NewStartLine:  int32(origStart + 1 + shift),
		NewLines:      int32(origLines + delta),
		Body:          body.Bytes(),
	}, delta
}

func writeDiffLine(buf *bytes.Buffer, prefix byte, text string) {
	buf.WriteByte(prefix)
	buf.WriteString(text)
	buf.WriteByte('\n')
}
