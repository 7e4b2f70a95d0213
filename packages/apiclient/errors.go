package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyExcerpt bounds how much of a response body Error() prints.
const maxBodyExcerpt = 200

var (
	// ErrUnsupportedMethod is returned for verbs other than GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrUnsupportedQuery is returned when GET or DELETE data cannot be
	// turned into a querystring.
	ErrUnsupportedQuery = errors.New("unsupported querystring data")

	errNilResponse = errors.New("transport returned no response")
)

// UnexpectedResponse reports a request whose status fell outside 2xx, either
// returned as a response or signalled by the transport as an error.
type UnexpectedResponse struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte

	// Cause is the transport error the status was taken from, if any.
	Cause error
}

func (e *UnexpectedResponse) Error() string {
	var b strings.Builder
	b.WriteString("unexpected response: ")
	b.WriteString(e.Method)
	b.WriteString(" ")
	b.WriteString(e.URL)
	b.WriteString(fmt.Sprintf(" returned %d", e.StatusCode))
	if text := http.StatusText(e.StatusCode); text != "" {
		b.WriteString(" ")
		b.WriteString(text)
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		if len(body) > maxBodyExcerpt {
			body = body[:maxBodyExcerpt] + "..."
		}
		b.WriteString(": ")
		b.WriteString(body)
	}
	return b.String()
}

func (e *UnexpectedResponse) Unwrap() error { return e.Cause }

// BodyString returns the raw response body as a string.
func (e *UnexpectedResponse) BodyString() string {
	return string(e.Body)
}

// TransportError reports a failure that produced no HTTP status at all,
// such as a refused connection or an expired deadline.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AsUnexpectedResponse extracts an *UnexpectedResponse from err.
func AsUnexpectedResponse(err error) (*UnexpectedResponse, bool) {
	var ur *UnexpectedResponse
	if errors.As(err, &ur) {
		return ur, true
	}
	return nil, false
}

// IsStatus reports whether err is an *UnexpectedResponse with the given code.
func IsStatus(err error, code int) bool {
	ur, ok := AsUnexpectedResponse(err)
	return ok && ur.StatusCode == code
}

// statusError is implemented by transport errors that carry an HTTP status.
type statusError interface {
	StatusCode() int
}

// bodyError is optionally implemented alongside statusError.
type bodyError interface {
	Body() []byte
}

// normalizeTransportError maps a transport failure onto the error kinds the
// client exposes.
func normalizeTransportError(method, target string, err error) error {
	var se statusError
	if errors.As(err, &se) && se.StatusCode() != 0 {
		ur := &UnexpectedResponse{
			Method:     method,
			URL:        target,
			StatusCode: se.StatusCode(),
			Cause:      err,
		}
		var be bodyError
		if errors.As(err, &be) {
			ur.Body = be.Body()
		}
		return ur
	}
	return &TransportError{Method: method, URL: target, Err: err}
}
