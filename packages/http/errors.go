package http

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupportedBody is returned for request bodies the transport cannot
// put on the wire without an encoder.
var ErrUnsupportedBody = errors.New("unsupported request body")

// StatusError is returned by RestyClient for responses outside 2xx. It
// carries the status and body so apiclient can report them.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
	Data   []byte
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, status)
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int { return e.Code }

// Body returns the raw response body.
func (e *StatusError) Body() []byte { return e.Data }
