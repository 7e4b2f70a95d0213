package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client issues one request per call against a fixed base URL.
type Client struct {
	baseURL   *neturl.URL
	transport Transport
	profile   *Profile
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output. Failures are always
// returned to the caller whether or not they are logged.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client. The base URL is read from cfg once; a nil profile
// means no global headers and no hooks.
func New(cfg Configuration, transport Transport, profile *Profile, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}

	base, err := parseBaseURL(cfg.AppHost())
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = NewProfile()
	}

	c := &Client{
		baseURL:   base,
		transport: transport,
		profile:   profile,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBaseURL(raw string) (*neturl.URL, error) {
	u, err := neturl.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid app host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid app host %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid app host %q: missing host", raw)
	}
	return u, nil
}

// BaseURL returns the base URL every path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Profile returns the configured variant the client runs with.
func (c *Client) Profile() *Profile {
	return c.profile
}

// Get issues a GET. Present data is sent as a querystring.
func (c *Client) Get(ctx context.Context, path string, data any, headers map[string]string) (any, error) {
	return c.Request(ctx, http.MethodGet, path, data, headers)
}

// Post issues a POST. Present data is encoded and sent as the body.
func (c *Client) Post(ctx context.Context, path string, data any, headers map[string]string) (any, error) {
	return c.Request(ctx, http.MethodPost, path, data, headers)
}

// Put issues a PUT. Present data is encoded and sent as the body.
func (c *Client) Put(ctx context.Context, path string, data any, headers map[string]string) (any, error) {
	return c.Request(ctx, http.MethodPut, path, data, headers)
}

// Delete issues a DELETE. Present data is sent as a querystring.
func (c *Client) Delete(ctx context.Context, path string, data any, headers map[string]string) (any, error) {
	return c.Request(ctx, http.MethodDelete, path, data, headers)
}

// URL resolves path against the base URL the way a request with the given
// method and data would, without sending anything.
func (c *Client) URL(method, path string, data any) (string, error) {
	method = strings.ToUpper(method)
	if !supportedMethod(method) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if !absent(data) && !hasBody(method) {
		var err error
		if path, err = appendQuery(path, data); err != nil {
			return "", err
		}
	}
	return c.resolve(path)
}

// absent reports whether data carries nothing to send: untyped nil, or a
// nil map, slice or pointer.
func absent(data any) bool {
	if data == nil {
		return true
	}
	switch v := reflect.ValueOf(data); v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Request runs the full pipeline for one call: header merge, body encoding
// or querystring construction, dispatch, status check and decoding.
func (c *Client) Request(ctx context.Context, method, path string, data any, headers map[string]string) (any, error) {
	method = strings.ToUpper(method)
	target, err := c.URL(method, path, data)
	if err != nil {
		return nil, err
	}

	var body any
	if !absent(data) && hasBody(method) {
		if body, err = c.profile.encode(data); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	effective := c.profile.merge(headers)

	c.logger.Debug("dispatching request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("headers", len(effective)),
		zap.Bool("body", body != nil),
	)

	start := time.Now()
	resp, err := c.dispatch(ctx, method, target, body, effective)
	duration := time.Since(start)

	if err == nil && resp == nil {
		err = errNilResponse
	}
	if err != nil {
		failure := normalizeTransportError(method, target, err)
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.Error(failure),
		)
		return nil, failure
	}

	c.logger.Debug("response received",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	if !resp.IsSuccess() {
		return nil, &UnexpectedResponse{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	decoded, err := c.profile.decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return decoded, nil
}

func (c *Client) dispatch(ctx context.Context, method, target string, body any, headers map[string]string) (*Response, error) {
	switch method {
	case http.MethodGet:
		return c.transport.Get(ctx, target, headers)
	case http.MethodPost:
		return c.transport.Post(ctx, target, body, headers)
	case http.MethodPut:
		return c.transport.Put(ctx, target, body, headers)
	default:
		return c.transport.Delete(ctx, target, headers)
	}
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := neturl.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func supportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// As converts the result of a Client call to T. It passes err through and
// reports a type mismatch as an error.
func As[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("decoded value is %T, not %T", v, zero)
	}
	return t, nil
}
