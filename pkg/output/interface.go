package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders a report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (csv, text, json, markdown).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds pipeline statistics to the output.
	Verbose bool

	// Header prints a column header line before CSV output.
	Header bool
}

// Format names accepted by NewFormatter.
const (
	FormatCSV      = "csv"
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats lists all supported format names.
var Formats = []string{FormatCSV, FormatText, FormatJSON, FormatMarkdown}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case FormatCSV:
		return NewCSVFormatter(opts), nil
	case FormatText:
		return NewTextFormatter(opts), nil
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use csv, text, json, or markdown)", name)
	}
}
