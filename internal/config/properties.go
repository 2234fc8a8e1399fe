package config

import (
	"fmt"
	"strings"
)

// Properties is the per-invocation configuration of message generation.
// Field names follow the settings users already know from the editor
// extension.
type Properties struct {
	WrapLogMessage                  bool   `yaml:"wrapLogMessage" toml:"wrapLogMessage" json:"wrapLogMessage"`
	LogMessagePrefix                string `yaml:"logMessagePrefix" toml:"logMessagePrefix" json:"logMessagePrefix"`
	LogMessageSuffix                string `yaml:"logMessageSuffix" toml:"logMessageSuffix" json:"logMessageSuffix"`
	Quote                           string `yaml:"quote" toml:"quote" json:"quote"`
	DelimiterInsideMessage          string `yaml:"delimiterInsideMessage" toml:"delimiterInsideMessage" json:"delimiterInsideMessage"`
	IncludeFilename                 bool   `yaml:"includeFilename" toml:"includeFilename" json:"includeFilename"`
	IncludeLineNum                  bool   `yaml:"includeLineNum" toml:"includeLineNum" json:"includeLineNum"`
	InsertEnclosingClass            bool   `yaml:"insertEnclosingClass" toml:"insertEnclosingClass" json:"insertEnclosingClass"`
	InsertEnclosingFunction         bool   `yaml:"insertEnclosingFunction" toml:"insertEnclosingFunction" json:"insertEnclosingFunction"`
	AddSemicolonInTheEnd            bool   `yaml:"addSemicolonInTheEnd" toml:"addSemicolonInTheEnd" json:"addSemicolonInTheEnd"`
	InsertEmptyLineBeforeLogMessage bool   `yaml:"insertEmptyLineBeforeLogMessage" toml:"insertEmptyLineBeforeLogMessage" json:"insertEmptyLineBeforeLogMessage"`
	InsertEmptyLineAfterLogMessage  bool   `yaml:"insertEmptyLineAfterLogMessage" toml:"insertEmptyLineAfterLogMessage" json:"insertEmptyLineAfterLogMessage"`
	LogFunction                     string `yaml:"logFunction" toml:"logFunction" json:"logFunction"`
	LogType                         string `yaml:"logType" toml:"logType" json:"logType"`

	TabSize           int    `yaml:"tabSize" toml:"tabSize" json:"tabSize"`
	EnclosingResolver string `yaml:"enclosingResolver" toml:"enclosingResolver" json:"enclosingResolver"`
}

// Enclosing resolver names.
const (
	ResolverLine   = "line"
	ResolverSyntax = "syntax"
)

// Default returns the built-in configuration.
func Default() Properties {
	return Properties{
		LogMessagePrefix:        "🚀",
		LogMessageSuffix:        ":",
		Quote:                   `"`,
		DelimiterInsideMessage:  "~",
		InsertEnclosingClass:    true,
		InsertEnclosingFunction: true,
		AddSemicolonInTheEnd:    true,
		LogFunction:             "log",
		LogType:                 "log",
		TabSize:                 2,
		EnclosingResolver:       ResolverLine,
	}
}

// Tab returns one indentation step.
func (p Properties) Tab() string {
	if p.TabSize <= 0 {
		return "\t"
	}
	return strings.Repeat(" ", p.TabSize)
}

// Validate rejects values the message builder cannot work with.
func (p Properties) Validate() error {
	switch p.Quote {
	case `"`, "'", "`":
	default:
		return fmt.Errorf("invalid quote %q: must be one of \" ' `", p.Quote)
	}
	switch p.EnclosingResolver {
	case ResolverLine, ResolverSyntax:
	default:
		return fmt.Errorf("invalid enclosingResolver %q: must be %q or %q", p.EnclosingResolver, ResolverLine, ResolverSyntax)
	}
	if p.TabSize < 0 {
		return fmt.Errorf("invalid tabSize %d", p.TabSize)
	}
	if strings.TrimSpace(p.LogFunction) == "" {
		return fmt.Errorf("logFunction must not be empty")
	}
	return nil
}

// Overrides are per-command values that take precedence over stored
// configuration when detecting messages. Empty fields keep the stored value.
type Overrides struct {
	LogFunction string `json:"logFunction,omitempty"`
	LogType     string `json:"logType,omitempty"`
	Delimiter   string `json:"delimiter,omitempty"`
}

// Apply returns a copy of p with the non-empty overrides applied.
func (o Overrides) Apply(p Properties) Properties {
	if o.LogFunction != "" {
		p.LogFunction = o.LogFunction
	}
	if o.LogType != "" {
		p.LogType = o.LogType
	}
	if o.Delimiter != "" {
		p.DelimiterInsideMessage = o.Delimiter
	}
	return p
}
