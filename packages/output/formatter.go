package output

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/apidriver/packages/stats"
)

// Formatter renders what a CLI command produced.
type Formatter interface {
	FormatValue(v any)
	FormatError(err error)
	FormatStats(s *stats.Summary)
}

// New returns the formatter registered under format ("console" or "json").
func New(format string, w io.Writer, noColor bool) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(WithJSONWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
