package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
	"github.com/abdul-hamid-achik/apidriver/packages/stats"
)

// maxBodyDisplay bounds how much of a failed response body is printed.
const maxBodyDisplay = 8000

type ConsoleFormatter struct {
	writer  io.Writer
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatValue prints a decoded response. Raw bodies are printed as-is and
// anything else is rendered as indented JSON.
func (f *ConsoleFormatter) FormatValue(v any) {
	fmt.Fprintln(f.writer, renderValue(v))
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case gjson.Result:
		return val.Raw
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// truncate shortens s to max bytes for display.
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	var te *apiclient.TransportError
	if ur, ok := apiclient.AsUnexpectedResponse(err); ok {
		fmt.Fprintf(f.writer, "%s %s %s\n", red("✗"), bold(ur.Method), ur.URL)
		fmt.Fprintf(f.writer, "  Status: %s\n", red(fmt.Sprintf("%d %s", ur.StatusCode, http.StatusText(ur.StatusCode))))
		if len(ur.Body) > 0 {
			fmt.Fprintf(f.writer, "  Body:   %s\n", truncate(ur.BodyString(), maxBodyDisplay))
		}
		return
	}
	if errors.As(err, &te) {
		fmt.Fprintf(f.writer, "%s %s %s\n", red("✗"), bold(te.Method), te.URL)
		fmt.Fprintf(f.writer, "  %s %v\n", yellow("Network error:"), te.Err)
		return
	}
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatStats(s *stats.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Latency"))
	fmt.Fprintf(f.writer, "  Requests: %d (%s, %s)\n",
		s.TotalRequests,
		green(fmt.Sprintf("%d ok", s.SuccessCount)),
		red(fmt.Sprintf("%d failed", s.ErrorCount)))
	if s.TimeoutCount > 0 {
		fmt.Fprintf(f.writer, "  Timeouts: %d\n", s.TimeoutCount)
	}
	fmt.Fprintf(f.writer, "  p50 %s  p95 %s  p99 %s  max %s\n",
		cyan(ms(s.P50)), cyan(ms(s.P95)), cyan(ms(s.P99)), cyan(ms(s.Max)))
	fmt.Fprintf(f.writer, "  RPS: %.2f  Time: %s\n", s.RPS, ms(s.Duration))

	for _, b := range s.Breakdown {
		fmt.Fprintf(f.writer, "  %-6s %d requests, %d errors, p50 %s p99 %s\n",
			b.Name, b.Total, b.Errors, ms(b.P50), ms(b.P99))
	}
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}
