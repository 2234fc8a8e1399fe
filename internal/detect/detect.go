// Package detect finds debug statements that were generated earlier so they
// can be commented, uncommented, deleted or corrected in bulk.
package detect

import (
	"regexp"
	"strings"
	"unicode"

	"logsmith/internal/brackets"
	"logsmith/internal/config"
	"logsmith/internal/document"
	"logsmith/internal/message"
)

// Message is a generated statement found in a document.
type Message struct {
	// Range covers the call and, for a wrapped message, both banners.
	Range document.LineRange `json:"range"`
	// Call is the line of the log call, or -1 for a banner left without one.
	Call int `json:"call"`
	// Spaces is the indentation of the first covered line.
	Spaces string `json:"spaces"`
	// Lines holds the covered line texts.
	Lines []string `json:"lines"`
	// IsCommented is set when every covered line starts with //.
	IsCommented bool `json:"isCommented"`
	// Wrap is set when banner lines are part of the message.
	Wrap bool `json:"wrap"`
}

// CallText returns the first line of the call, or the banner for a lone
// banner.
func (m Message) CallText() string {
	if m.Call < 0 {
		return m.Lines[0]
	}
	return m.Lines[m.Call-m.Range.Start]
}

// Detector recognizes the statements produced for one configuration.
type Detector struct {
	props     config.Properties
	call      string
	statement *regexp.Regexp
	banner    *regexp.Regexp
	closer    brackets.Closer
}

// Props returns the configuration the detector matches against.
func (d *Detector) Props() config.Properties { return d.props }

// New creates a detector. Overrides take precedence over props.
func New(props config.Properties, overrides config.Overrides) *Detector {
	props = overrides.Apply(props)
	call := message.CallPrefix(props.LogFunction, props.LogType) + "("
	prefix := regexp.QuoteMeta(stripSpaces(props.LogMessagePrefix))
	dashes := "-*"
	if prefix == "" {
		dashes = "-+"
	}
	return &Detector{
		props:     props,
		call:      call,
		statement: regexp.MustCompile("^" + regexp.QuoteMeta(stripSpaces(call)) + "([\"'`])(.*)[\"'`],(.+)\\);?$"),
		banner:    regexp.MustCompile("^" + regexp.QuoteMeta(stripSpaces(call)) + "[\"'`]" + prefix + dashes + prefix + "[\"'`]\\);?$"),
		closer:    brackets.Default,
	}
}

// DetectAll is shorthand for New(props, overrides).Detect(doc).
func DetectAll(doc *document.Document, props config.Properties, overrides config.Overrides) []Message {
	return New(props, overrides).Detect(doc)
}

// Detect returns the generated messages in ascending line order. A call
// framed by a banner directly above and below is one message. Lines that
// start like a generated call but do not have its shape are skipped.
func (d *Detector) Detect(doc *document.Document) []Message {
	var found []Message
	for i := 0; i < doc.LineCount(); i++ {
		text := doc.Line(i)
		if !strings.HasPrefix(uncomment(strings.TrimSpace(text)), d.call) {
			continue
		}
		end, ok := d.closer.Close(doc, i, brackets.Parenthesis)
		if !ok {
			continue
		}
		covered := make([]string, 0, end-i+1)
		commented := true
		var flat strings.Builder
		for j := i; j <= end; j++ {
			line := doc.Line(j)
			covered = append(covered, line)
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "//") {
				commented = false
			}
			flat.WriteString(stripSpaces(uncomment(trimmed)))
		}

		m := Message{
			Range:       document.LineRange{Start: i, End: end},
			Call:        i,
			Spaces:      document.Indentation(text),
			Lines:       covered,
			IsCommented: commented,
		}
		switch {
		case d.banner.MatchString(flat.String()):
			m.Call = -1
			m.Wrap = true
		case d.valid(flat.String()):
		default:
			continue
		}
		found = append(found, m)
		i = end
	}
	return frame(found)
}

// frame merges every banner, call, banner run on consecutive lines into one
// message. The three parts must agree on being commented.
func frame(found []Message) []Message {
	out := make([]Message, 0, len(found))
	for k := 0; k < len(found); k++ {
		if k+2 < len(found) {
			top, call, bottom := found[k], found[k+1], found[k+2]
			if top.Call < 0 && call.Call >= 0 && bottom.Call < 0 &&
				call.Range.Start == top.Range.End+1 && bottom.Range.Start == call.Range.End+1 &&
				top.IsCommented == call.IsCommented && call.IsCommented == bottom.IsCommented {
				lines := append(append(append([]string(nil), top.Lines...), call.Lines...), bottom.Lines...)
				out = append(out, Message{
					Range:       document.LineRange{Start: top.Range.Start, End: bottom.Range.End},
					Call:        call.Call,
					Spaces:      top.Spaces,
					Lines:       lines,
					IsCommented: call.IsCommented,
					Wrap:        true,
				})
				k += 2
				continue
			}
		}
		out = append(out, found[k])
	}
	return out
}

// valid checks the flattened call against the generated shape: the message
// text ends with the delimiter, the logged expression and the suffix, and
// the expression is also the second argument.
func (d *Detector) valid(flat string) bool {
	m := d.statement.FindStringSubmatch(flat)
	if m == nil {
		return false
	}
	content := m[2]
	arg := strings.TrimPrefix(m[3], "//")
	tail := arg + stripSpaces(d.props.LogMessageSuffix)
	if d.props.LogMessagePrefix == "" && content == tail {
		return true
	}
	return strings.HasSuffix(content, stripSpaces(d.props.DelimiterInsideMessage)+tail)
}

func uncomment(trimmed string) string {
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
