package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// settings are shared by Client and RestyClient.
type settings struct {
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	limiter        *rate.Limiter
}

func newSettings(opts []ClientOption) settings {
	s := settings{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// wait blocks until the rate limiter allows another request.
func (s *settings) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

type ClientOption func(*settings)

func WithTimeout(d time.Duration) ClientOption {
	return func(s *settings) {
		s.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(s *settings) {
		s.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(s *settings) {
		s.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(s *settings) {
		s.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(s *settings) {
		s.proxyURL = proxyURL
	}
}

// WithRateLimit caps outgoing requests at rps per second. Zero or less
// disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(s *settings) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// Client is the default transport, built on net/http.
type Client struct {
	settings
	httpClient *http.Client
}

var _ apiclient.Transport = (*Client)(nil)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{settings: newSettings(opts)}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	// Configure TLS verification
	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	// Configure proxy if specified; config.Validate rejects malformed URLs.
	if c.proxyURL != "" {
		if proxyURL, err := ParseProxyURL(c.proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

// Do sends req and reads the whole response. Any status code is returned as
// a Response; only failures to exchange a request produce an error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	// Validate URL before making request
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	// Header names go out exactly as the caller wrote them.
	for k, v := range req.Headers {
		httpReq.Header[k] = []string{v}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func (c *Client) send(ctx context.Context, method, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	req, err := buildRequest(method, url, body, headers)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.APIResponse(), nil
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return c.send(ctx, http.MethodGet, url, nil, headers)
}

func (c *Client) Post(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return c.send(ctx, http.MethodPost, url, body, headers)
}

func (c *Client) Put(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return c.send(ctx, http.MethodPut, url, body, headers)
}

func (c *Client) Delete(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return c.send(ctx, http.MethodDelete, url, nil, headers)
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k := range h {
		headers[k] = h.Get(k)
	}
	return headers
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// ParseProxyURL parses a proxy address, which needs a scheme and a host.
func ParseProxyURL(rawURL string) (*neturl.URL, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %v", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy URL must have a host")
	}
	return u, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
