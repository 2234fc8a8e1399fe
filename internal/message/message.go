// Package message builds the text of a generated debug statement.
package message

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"logsmith/internal/config"
)

// Context is the resolved metadata embedded in a message.
type Context struct {
	FileName     string
	Line         int // 1-based line the call will occupy
	ClassName    string
	FunctionName string
}

// Statement is a rendered message: the call itself plus optional wrapping
// banners and empty lines.
type Statement struct {
	// Lines holds the statement lines without indentation. Empty strings
	// stand for the configured empty lines.
	Lines []string
	// CallOffset is the index of the call line within Lines.
	CallOffset int
}

// Render returns the statement lines with indent applied to every
// non-empty line.
func (s Statement) Render(indent string) []string {
	out := make([]string, len(s.Lines))
	for i, line := range s.Lines {
		if line == "" {
			continue
		}
		out[i] = indent + line
	}
	return out
}

// CallLine returns the call text without indentation.
func (s Statement) CallLine() string {
	return s.Lines[s.CallOffset]
}

// LeadingLines is the number of lines rendered before the call line.
func LeadingLines(p config.Properties) int {
	n := 0
	if p.InsertEmptyLineBeforeLogMessage {
		n++
	}
	if p.WrapLogMessage {
		n++
	}
	return n
}

// CallPrefix returns the function expression used for generated calls, such
// as console.log or a custom logger name.
func CallPrefix(logFunction, logType string) string {
	if logFunction == "" || logFunction == "log" {
		if logType == "" {
			logType = "log"
		}
		return "console." + logType
	}
	return logFunction
}

// PickQuote avoids producing an invalid string literal for selections that
// contain quotes.
func PickQuote(text, configured string) string {
	switch {
	case strings.Contains(text, `"`):
		return "`"
	case strings.Contains(text, "'"):
		return `"`
	case configured == "":
		return `"`
	default:
		return configured
	}
}

// Content assembles the message text that appears between the quotes.
func Content(variable string, ctx Context, p config.Properties) string {
	delim := p.DelimiterInsideMessage
	var b strings.Builder
	b.WriteString(p.LogMessagePrefix)
	if p.LogMessagePrefix != "" && p.LogMessagePrefix != delim+" " {
		b.WriteString(" " + delim + " ")
	}
	switch {
	case p.IncludeFilename && p.IncludeLineNum:
		fmt.Fprintf(&b, "file: %s:%d %s ", ctx.FileName, ctx.Line, delim)
	case p.IncludeFilename:
		fmt.Fprintf(&b, "file: %s %s ", ctx.FileName, delim)
	case p.IncludeLineNum:
		fmt.Fprintf(&b, "line:%d %s ", ctx.Line, delim)
	}
	if p.InsertEnclosingClass && ctx.ClassName != "" {
		b.WriteString(ctx.ClassName + " " + delim + " ")
	}
	if p.InsertEnclosingFunction && ctx.FunctionName != "" {
		b.WriteString(ctx.FunctionName + " " + delim + " ")
	}
	b.WriteString(variable)
	b.WriteString(p.LogMessageSuffix)
	return b.String()
}

// Build assembles the statement for variable.
func Build(variable string, ctx Context, p config.Properties) Statement {
	quote := PickQuote(variable, p.Quote)
	fn := CallPrefix(p.LogFunction, p.LogType)
	semicolon := ""
	if p.AddSemicolonInTheEnd {
		semicolon = ";"
	}

	content := Content(variable, ctx, p)
	call := fmt.Sprintf("%s(%s%s%s, %s)%s", fn, quote, content, quote, variable, semicolon)

	var s Statement
	if p.InsertEmptyLineBeforeLogMessage {
		s.Lines = append(s.Lines, "")
	}
	banner := ""
	if p.WrapLogMessage {
		banner = Banner(fn, quote, p.LogMessagePrefix, utf8.RuneCountInString(content)) + semicolon
		s.Lines = append(s.Lines, banner)
	}
	s.CallOffset = len(s.Lines)
	s.Lines = append(s.Lines, call)
	if p.WrapLogMessage {
		s.Lines = append(s.Lines, banner)
	}
	if p.InsertEmptyLineAfterLogMessage {
		s.Lines = append(s.Lines, "")
	}
	return s
}

// Banner returns the dashed line framing a wrapped message.
func Banner(fn, quote, prefix string, contentLen int) string {
	dashes := contentLen - 16
	if dashes < 0 {
		dashes = 0
	}
	return fmt.Sprintf("%s(%s%s %s%s%s)", fn, quote, prefix, strings.Repeat("-", dashes), prefix, quote)
}
