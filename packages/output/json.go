package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
	"github.com/abdul-hamid-achik/apidriver/packages/stats"
)

// JSONValue wraps a successful result.
type JSONValue struct {
	Value any `json:"value"`
}

// JSONError describes a failed call.
type JSONError struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Method     string `json:"method,omitempty"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
}

// JSONStats mirrors stats.Summary with durations in milliseconds.
type JSONStats struct {
	Total     int64           `json:"total"`
	Success   int64           `json:"success"`
	Errors    int64           `json:"errors"`
	Timeouts  int64           `json:"timeouts"`
	RPS       float64         `json:"rps"`
	P50       float64         `json:"p50"`
	P95       float64         `json:"p95"`
	P99       float64         `json:"p99"`
	Max       float64         `json:"max"`
	Duration  float64         `json:"duration"`
	Breakdown []JSONVerbStats `json:"breakdown,omitempty"`
}

// JSONVerbStats holds the figures for one HTTP verb.
type JSONVerbStats struct {
	Method string  `json:"method"`
	Total  int64   `json:"total"`
	Errors int64   `json:"errors"`
	P50    float64 `json:"p50"`
	P99    float64 `json:"p99"`
}

// JSONFormatter writes one JSON document per call.
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) write(v any) {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (f *JSONFormatter) FormatValue(v any) {
	switch val := v.(type) {
	case []byte:
		if json.Valid(val) {
			v = json.RawMessage(val)
		} else {
			v = string(val)
		}
	case gjson.Result:
		v = val.Value()
	}
	f.write(JSONValue{Value: v})
}

func (f *JSONFormatter) FormatError(err error) {
	out := JSONError{Error: err.Error(), Kind: "error"}

	var te *apiclient.TransportError
	if ur, ok := apiclient.AsUnexpectedResponse(err); ok {
		out.Kind = "unexpected_response"
		out.Method = ur.Method
		out.URL = ur.URL
		out.StatusCode = ur.StatusCode
		out.Body = ur.BodyString()
	} else if errors.As(err, &te) {
		out.Kind = "transport"
		out.Method = te.Method
		out.URL = te.URL
	}
	f.write(out)
}

func (f *JSONFormatter) FormatStats(s *stats.Summary) {
	toMs := func(v interface{ Microseconds() int64 }) float64 {
		return float64(v.Microseconds()) / 1000
	}

	out := JSONStats{
		Total:    s.TotalRequests,
		Success:  s.SuccessCount,
		Errors:   s.ErrorCount,
		Timeouts: s.TimeoutCount,
		RPS:      s.RPS,
		P50:      toMs(s.P50),
		P95:      toMs(s.P95),
		P99:      toMs(s.P99),
		Max:      toMs(s.Max),
		Duration: toMs(s.Duration),
	}
	for _, b := range s.Breakdown {
		out.Breakdown = append(out.Breakdown, JSONVerbStats{
			Method: b.Name,
			Total:  b.Total,
			Errors: b.Errors,
			P50:    toMs(b.P50),
			P99:    toMs(b.P99),
		})
	}
	f.write(map[string]any{"stats": out})
}
