package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

// RestyClient adapts resty.Client to apiclient.Transport. Unlike Client it
// signals non-2xx responses as *StatusError.
type RestyClient struct {
	settings
	client *resty.Client
}

var _ apiclient.Transport = (*RestyClient)(nil)

// NewRestyClient creates a RestyClient from the same options as NewClient.
func NewRestyClient(opts ...ClientOption) *RestyClient {
	r := &RestyClient{settings: newSettings(opts)}

	c := resty.New()
	c.SetTimeout(r.timeout)
	c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if !r.followRedirect || len(via) >= r.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}))
	if !r.validateSSL {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if r.proxyURL != "" {
		c.SetProxy(r.proxyURL)
	}

	r.client = c
	return r
}

func (r *RestyClient) execute(ctx context.Context, method, target string, body any, headers map[string]string) (*apiclient.Response, error) {
	if err := ValidateURL(target); err != nil {
		return nil, err
	}
	if err := r.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := r.client.R().SetContext(ctx)
	// Header names go out exactly as the caller wrote them.
	for k, v := range headers {
		req.SetHeaderVerbatim(k, v)
	}
	switch v := body.(type) {
	case nil:
	case url.Values:
		req.SetFormDataFromValues(v)
	default:
		req.SetBody(v)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode(),
			Status: resp.Status(),
			Data:   resp.Body(),
		}
	}

	return &apiclient.Response{
		StatusCode: resp.StatusCode(),
		Headers:    flattenHeaders(resp.Header()),
		Body:       resp.Body(),
	}, nil
}

func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return r.execute(ctx, resty.MethodGet, url, nil, headers)
}

func (r *RestyClient) Post(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return r.execute(ctx, resty.MethodPost, url, body, headers)
}

func (r *RestyClient) Put(ctx context.Context, url string, body any, headers map[string]string) (*apiclient.Response, error) {
	return r.execute(ctx, resty.MethodPut, url, body, headers)
}

func (r *RestyClient) Delete(ctx context.Context, url string, headers map[string]string) (*apiclient.Response, error) {
	return r.execute(ctx, resty.MethodDelete, url, nil, headers)
}
