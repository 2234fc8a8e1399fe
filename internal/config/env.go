package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "LOGSMITH_"

// Get returns the first non-empty environment variable from the provided keys.
func Get(keys ...string) string {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

type envBinding struct {
	key string
	set func(p *Properties, value string) error
}

func stringField(field func(p *Properties) *string) func(*Properties, string) error {
	return func(p *Properties, value string) error {
		*field(p) = value
		return nil
	}
}

func boolField(field func(p *Properties) *bool) func(*Properties, string) error {
	return func(p *Properties, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*field(p) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"WRAP_LOG_MESSAGE", boolField(func(p *Properties) *bool { return &p.WrapLogMessage })},
	{"LOG_MESSAGE_PREFIX", stringField(func(p *Properties) *string { return &p.LogMessagePrefix })},
	{"LOG_MESSAGE_SUFFIX", stringField(func(p *Properties) *string { return &p.LogMessageSuffix })},
	{"QUOTE", stringField(func(p *Properties) *string { return &p.Quote })},
	{"DELIMITER_INSIDE_MESSAGE", stringField(func(p *Properties) *string { return &p.DelimiterInsideMessage })},
	{"INCLUDE_FILENAME", boolField(func(p *Properties) *bool { return &p.IncludeFilename })},
	{"INCLUDE_LINE_NUM", boolField(func(p *Properties) *bool { return &p.IncludeLineNum })},
	{"INSERT_ENCLOSING_CLASS", boolField(func(p *Properties) *bool { return &p.InsertEnclosingClass })},
	{"INSERT_ENCLOSING_FUNCTION", boolField(func(p *Properties) *bool { return &p.InsertEnclosingFunction })},
	{"ADD_SEMICOLON_IN_THE_END", boolField(func(p *Properties) *bool { return &p.AddSemicolonInTheEnd })},
	{"INSERT_EMPTY_LINE_BEFORE_LOG_MESSAGE", boolField(func(p *Properties) *bool { return &p.InsertEmptyLineBeforeLogMessage })},
	{"INSERT_EMPTY_LINE_AFTER_LOG_MESSAGE", boolField(func(p *Properties) *bool { return &p.InsertEmptyLineAfterLogMessage })},
	{"LOG_FUNCTION", stringField(func(p *Properties) *string { return &p.LogFunction })},
	{"LOG_TYPE", stringField(func(p *Properties) *string { return &p.LogType })},
	{"TAB_SIZE", func(p *Properties, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		p.TabSize = n
		return nil
	}},
	{"ENCLOSING_RESOLVER", stringField(func(p *Properties) *string { return &p.EnclosingResolver })},
}

// ApplyEnv overlays LOGSMITH_* environment variables onto p.
func ApplyEnv(p *Properties) error {
	for _, b := range envBindings {
		key := EnvPrefix + b.key
		value := Get(key)
		if value == "" {
			continue
		}
		if err := b.set(p, value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}
