package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

// bodyBytes flattens an encoded body into bytes. The returned content type
// is only a default; a Content-Type header set by the caller wins.
func bodyBytes(body any) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), "", nil
	case json.RawMessage:
		return v, "application/json", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		return data, "", nil
	case fmt.Stringer:
		return []byte(v.String()), "", nil
	default:
		return nil, "", fmt.Errorf("%w: %T (configure an encoder)", ErrUnsupportedBody, body)
	}
}

// buildRequest turns a transport call into a Request.
func buildRequest(method, requestURL string, body any, headers map[string]string) (*Request, error) {
	req := NewRequest(method, requestURL)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	data, contentType, err := bodyBytes(body)
	if err != nil {
		return nil, err
	}
	req.SetBody(data)

	if contentType != "" && !hasHeader(req.Headers, "Content-Type") {
		req.SetHeader("Content-Type", contentType)
	}
	return req, nil
}
