package http

import (
	"time"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// APIResponse converts r into the shape apiclient expects from a transport.
func (r *Response) APIResponse() *apiclient.Response {
	return &apiclient.Response{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       r.Body,
	}
}
