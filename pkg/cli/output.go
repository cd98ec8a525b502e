package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how a command renders its result.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates an --output value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(s)
	switch f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Formatter renders a command result onto w.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter prints data with %v, so report types control their
// text form through String.
type TextFormatter struct{}

func (TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintln(w, data)
	return err
}

type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) FormatTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// YAMLFormatter emits a single YAML document using the yaml struct tags.
type YAMLFormatter struct{}

func (YAMLFormatter) FormatTo(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// NewFormatter returns the formatter for format, defaulting to text.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	}
	return &TextFormatter{}
}
