package detect

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"logsmith/internal/document"
)

var (
	fileToken = regexp.MustCompile("\\b(file:\\s*)([^\\s:\"'`]+)(?::(\\d+))?")
	lineToken = regexp.MustCompile(`\b(line:\s*)(\d+)`)
)

// Comment prefixes every line of the uncommented messages with "// ",
// keeping each line's indentation.
func Comment(doc *document.Document, msgs []Message) *document.Batch {
	b := document.NewBatch()
	for _, m := range msgs {
		if m.IsCommented {
			continue
		}
		for i := m.Range.Start; i <= m.Range.End; i++ {
			line := doc.Line(i)
			indent := document.Indentation(line)
			b.Replace(i, indent+"// "+line[len(indent):])
		}
	}
	return b
}

// Uncomment strips the leading // (and one following space) from every line
// of the commented messages.
func Uncomment(doc *document.Document, msgs []Message) *document.Batch {
	b := document.NewBatch()
	for _, m := range msgs {
		if !m.IsCommented {
			continue
		}
		for i := m.Range.Start; i <= m.Range.End; i++ {
			line := doc.Line(i)
			indent := document.Indentation(line)
			rest := strings.TrimPrefix(line[len(indent):], "//")
			b.Replace(i, indent+strings.TrimPrefix(rest, " "))
		}
	}
	return b
}

// Delete removes the messages together with one blank line directly above
// and below each of them.
func Delete(doc *document.Document, msgs []Message) *document.Batch {
	remove := make(map[int]bool)
	blank := func(i int) bool {
		return i >= 0 && i < doc.LineCount() && strings.TrimSpace(doc.Line(i)) == ""
	}
	for _, m := range msgs {
		for i := m.Range.Start; i <= m.Range.End; i++ {
			remove[i] = true
		}
		if blank(m.Range.Start - 1) {
			remove[m.Range.Start-1] = true
		}
		if blank(m.Range.End + 1) {
			remove[m.Range.End+1] = true
		}
	}

	lines := make([]int, 0, len(remove))
	for i := range remove {
		lines = append(lines, i)
	}
	sort.Ints(lines)

	b := document.NewBatch()
	for i := 0; i < len(lines); {
		j := i
		for j+1 < len(lines) && lines[j+1] == lines[j]+1 {
			j++
		}
		b.Delete(lines[i], lines[j]+1)
		i = j + 1
	}
	return b
}

// Correct rewrites the file name and line number tokens of each message so
// they match where the message now sits. Lines that are already correct are
// left alone.
func Correct(doc *document.Document, msgs []Message) *document.Batch {
	b := document.NewBatch()
	name := doc.FileName()
	for _, m := range msgs {
		if m.Call < 0 {
			continue
		}
		lineNum := strconv.Itoa(m.Call + 1)
		for i := m.Call; i <= m.Range.End; i++ {
			line := doc.Line(i)
			fixed := correctLine(line, name, lineNum)
			if fixed != line {
				b.Replace(i, fixed)
			}
		}
	}
	return b
}

func correctLine(line, name, lineNum string) string {
	if loc := fileToken.FindStringSubmatchIndex(line); loc != nil {
		var out strings.Builder
		out.WriteString(line[:loc[3]])
		if name != "" {
			out.WriteString(name)
		} else {
			out.WriteString(line[loc[4]:loc[5]])
		}
		if loc[6] >= 0 {
			out.WriteString(":" + lineNum)
		}
		out.WriteString(line[loc[1]:])
		return out.String()
	}
	if loc := lineToken.FindStringSubmatchIndex(line); loc != nil {
		return line[:loc[4]] + lineNum + line[loc[5]:]
	}
	return line
}
