package apiclient

import "context"

// Transport performs the actual HTTP call. Implementations own connection
// handling, TLS, redirects and timeouts.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
	Post(ctx context.Context, url string, body any, headers map[string]string) (*Response, error)
	Put(ctx context.Context, url string, body any, headers map[string]string) (*Response, error)
	Delete(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Configuration supplies the base URL a Client resolves paths against.
type Configuration interface {
	AppHost() string
}

// Response is what a Transport hands back for a completed exchange.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Encoder turns caller data into the body handed to the transport.
type Encoder func(data any) (any, error)

// Decoder turns a raw 2xx response body into the value returned to the caller.
type Decoder func(body []byte) (any, error)
