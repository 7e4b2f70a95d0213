package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticConfig string

func (c staticConfig) AppHost() string { return string(c) }

type call struct {
	method  string
	url     string
	body    any
	hasBody bool
	headers map[string]string
}

// fakeTransport records every call and answers with a canned response or error.
type fakeTransport struct {
	calls    []call
	response *Response
	err      error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{response: &Response{StatusCode: 200, Body: []byte("foo")}}
}

func (f *fakeTransport) record(c call) (*Response, error) {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeTransport) Get(_ context.Context, u string, h map[string]string) (*Response, error) {
	return f.record(call{method: http.MethodGet, url: u, headers: h})
}

func (f *fakeTransport) Post(_ context.Context, u string, body any, h map[string]string) (*Response, error) {
	return f.record(call{method: http.MethodPost, url: u, body: body, hasBody: true, headers: h})
}

func (f *fakeTransport) Put(_ context.Context, u string, body any, h map[string]string) (*Response, error) {
	return f.record(call{method: http.MethodPut, url: u, body: body, hasBody: true, headers: h})
}

func (f *fakeTransport) Delete(_ context.Context, u string, h map[string]string) (*Response, error) {
	return f.record(call{method: http.MethodDelete, url: u, headers: h})
}

func (f *fakeTransport) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

// statusErr mimics transports that signal HTTP failures as errors.
type statusErr struct {
	code int
	body []byte
}

func (e *statusErr) Error() string   { return fmt.Sprintf("http %d", e.code) }
func (e *statusErr) StatusCode() int { return e.code }
func (e *statusErr) Body() []byte    { return e.body }

var allMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

func newTestClient(t *testing.T, transport Transport, profile *Profile) *Client {
	t.Helper()
	c, err := New(staticConfig("http://example.com"), transport, profile)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("requires configuration", func(t *testing.T) {
		_, err := New(nil, newFakeTransport(), nil)
		assert.Error(t, err)
	})

	t.Run("requires transport", func(t *testing.T) {
		_, err := New(staticConfig("http://example.com"), nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid app host", func(t *testing.T) {
		for _, host := range []string{"", "example.com", "ftp://example.com", "http://"} {
			_, err := New(staticConfig(host), newFakeTransport(), nil)
			assert.Error(t, err, host)
		}
	})

	t.Run("reads base url once", func(t *testing.T) {
		c := newTestClient(t, newFakeTransport(), nil)
		assert.Equal(t, "http://example.com", c.BaseURL())
		assert.NotNil(t, c.Profile())
	})
}

func TestClient_ReturnsResponseBody(t *testing.T) {
	for _, method := range allMethods {
		t.Run(method, func(t *testing.T) {
			transport := newFakeTransport()
			c := newTestClient(t, transport, nil)

			got, err := c.Request(context.Background(), method, "/foo", nil, nil)

			require.NoError(t, err)
			assert.Equal(t, []byte("foo"), got)
			assert.Equal(t, method, transport.last(t).method)
			assert.Equal(t, "http://example.com/foo", transport.last(t).url)
		})
	}
}

func TestClient_VerbHelpers(t *testing.T) {
	transport := newFakeTransport()
	c := newTestClient(t, transport, nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "/a", nil, nil)
	require.NoError(t, err)
	_, err = c.Post(ctx, "/b", nil, nil)
	require.NoError(t, err)
	_, err = c.Put(ctx, "/c", nil, nil)
	require.NoError(t, err)
	_, err = c.Delete(ctx, "/d", nil, nil)
	require.NoError(t, err)

	require.Len(t, transport.calls, 4)
	for i, method := range allMethods {
		assert.Equal(t, method, transport.calls[i].method)
	}
}

func TestClient_UnsupportedMethod(t *testing.T) {
	transport := newFakeTransport()
	c := newTestClient(t, transport, nil)

	_, err := c.Request(context.Background(), "PATCH", "/foo", nil, nil)

	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Empty(t, transport.calls)
}

func TestClient_MethodIsCaseInsensitive(t *testing.T) {
	transport := newFakeTransport()
	c := newTestClient(t, transport, nil)

	_, err := c.Request(context.Background(), "get", "/foo", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, transport.last(t).method)
}

func TestClient_UnexpectedResponse(t *testing.T) {
	for _, method := range allMethods {
		t.Run(method+" returned status", func(t *testing.T) {
			transport := newFakeTransport()
			transport.response = &Response{StatusCode: 500, Body: []byte("boom")}
			decoded := false
			c := newTestClient(t, transport, NewProfile(DecodeWith(func([]byte) (any, error) {
				decoded = true
				return nil, nil
			})))

			_, err := c.Request(context.Background(), method, "/foo", nil, nil)

			ur, ok := AsUnexpectedResponse(err)
			require.True(t, ok, "expected UnexpectedResponse, got %v", err)
			assert.Equal(t, method, ur.Method)
			assert.Equal(t, "http://example.com/foo", ur.URL)
			assert.Equal(t, 500, ur.StatusCode)
			assert.Equal(t, "boom", ur.BodyString())
			assert.False(t, decoded, "decoder must not run on failure")
			assert.Len(t, transport.calls, 1)
		})

		t.Run(method+" transport status error", func(t *testing.T) {
			transport := newFakeTransport()
			cause := &statusErr{code: 500, body: []byte("boom")}
			transport.err = fmt.Errorf("wrapped: %w", cause)
			c := newTestClient(t, transport, nil)

			_, err := c.Request(context.Background(), method, "/foo", nil, nil)

			ur, ok := AsUnexpectedResponse(err)
			require.True(t, ok)
			assert.Equal(t, 500, ur.StatusCode)
			assert.Equal(t, []byte("boom"), ur.Body)
			assert.ErrorIs(t, err, cause)
			assert.True(t, IsStatus(err, 500))
		})
	}
}

func TestClient_StatusRange(t *testing.T) {
	tests := []struct {
		status int
		ok     bool
	}{
		{199, false},
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{302, false},
		{404, false},
		{503, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			transport := newFakeTransport()
			transport.response = &Response{StatusCode: tt.status}
			c := newTestClient(t, transport, nil)

			_, err := c.Get(context.Background(), "/foo", nil, nil)

			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsStatus(err, tt.status))
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	transport := newFakeTransport()
	refused := errors.New("connection refused")
	transport.err = refused
	c := newTestClient(t, transport, nil)

	_, err := c.Get(context.Background(), "/foo", nil, nil)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.MethodGet, te.Method)
	assert.Equal(t, "http://example.com/foo", te.URL)
	assert.ErrorIs(t, err, refused)
	_, ok := AsUnexpectedResponse(err)
	assert.False(t, ok)
}

func TestClient_NilResponse(t *testing.T) {
	transport := newFakeTransport()
	transport.response = nil
	c := newTestClient(t, transport, nil)

	_, err := c.Get(context.Background(), "/foo", nil, nil)

	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestClient_GlobalHeaders(t *testing.T) {
	profile := NewProfile(
		Header("Header-Foo", "Baz"),
		Header("Header-Bar", "Bam"),
	)
	global := map[string]string{"Header-Foo": "Baz", "Header-Bar": "Bam"}

	for _, method := range allMethods {
		t.Run(method, func(t *testing.T) {
			ctx := context.Background()

			t.Run("sets global headers", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, profile)

				_, err := c.Request(ctx, method, "/foo", nil, nil)
				require.NoError(t, err)
				assert.Equal(t, global, transport.last(t).headers)
			})

			t.Run("adds call headers for one request only", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, profile)

				_, err := c.Request(ctx, method, "/foo", nil, map[string]string{"Yak": "Shaved"})
				require.NoError(t, err)
				assert.Equal(t, map[string]string{
					"Header-Foo": "Baz",
					"Header-Bar": "Bam",
					"Yak":        "Shaved",
				}, transport.last(t).headers)

				_, err = c.Request(ctx, method, "/foo", nil, nil)
				require.NoError(t, err)
				assert.Equal(t, global, transport.last(t).headers)
			})

			t.Run("call headers override globals for one request only", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, profile)

				_, err := c.Request(ctx, method, "/foo", nil, map[string]string{"Header-Bar": "Yak"})
				require.NoError(t, err)
				assert.Equal(t, map[string]string{"Header-Foo": "Baz", "Header-Bar": "Yak"}, transport.last(t).headers)

				_, err = c.Request(ctx, method, "/foo", nil, nil)
				require.NoError(t, err)
				assert.Equal(t, global, transport.last(t).headers)
				assert.Equal(t, global, profile.Headers())
			})
		})
	}
}

func TestClient_CallHeaders(t *testing.T) {
	for _, method := range allMethods {
		t.Run(method, func(t *testing.T) {
			transport := newFakeTransport()
			c := newTestClient(t, transport, nil)
			ctx := context.Background()
			expected := map[string]string{"Foo": "Bar", "Baz": "Bam"}

			_, err := c.Request(ctx, method, "/foo", nil, expected)
			require.NoError(t, err)
			assert.Equal(t, expected, transport.last(t).headers)

			_, err = c.Request(ctx, method, "/foo", nil, nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{}, transport.last(t).headers)
		})
	}
}

func TestClient_CallHeadersAreNotMutated(t *testing.T) {
	transport := newFakeTransport()
	c := newTestClient(t, transport, NewProfile(Header("Global", "1")))
	callHeaders := map[string]string{"Local": "2"}

	_, err := c.Get(context.Background(), "/foo", nil, callHeaders)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Local": "2"}, callHeaders)
}

func TestClient_HeaderNamesAreCaseSensitive(t *testing.T) {
	transport := newFakeTransport()
	c := newTestClient(t, transport, NewProfile(Header("X-Token", "global")))

	_, err := c.Get(context.Background(), "/foo", nil, map[string]string{"x-token": "call"})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Token": "global", "x-token": "call"}, transport.last(t).headers)
}

func TestClient_Decoder(t *testing.T) {
	for _, method := range allMethods {
		t.Run(method, func(t *testing.T) {
			transport := newFakeTransport()
			var seen []byte
			c := newTestClient(t, transport, NewProfile(DecodeWith(func(body []byte) (any, error) {
				seen = body
				return "some decoded data", nil
			})))

			got, err := c.Request(context.Background(), method, "/foo", nil, nil)

			require.NoError(t, err)
			assert.Equal(t, "some decoded data", got)
			assert.Equal(t, []byte("foo"), seen)
		})
	}
}

func TestClient_DecoderError(t *testing.T) {
	transport := newFakeTransport()
	bad := errors.New("not json")
	c := newTestClient(t, transport, NewProfile(DecodeWith(func([]byte) (any, error) {
		return nil, bad
	})))

	_, err := c.Get(context.Background(), "/foo", nil, nil)

	assert.ErrorIs(t, err, bad)
	assert.Contains(t, err.Error(), "decode response body")
}

func TestClient_Encoder(t *testing.T) {
	type widget struct{ Name string }

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		t.Run(method, func(t *testing.T) {
			t.Run("encodes input", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, NewProfile(EncodeWith(func(data any) (any, error) {
					if data != (widget{Name: "some data"}) {
						return nil, errors.New("wrong data")
					}
					return "some encoded data", nil
				})))

				_, err := c.Request(context.Background(), method, "/foo", widget{Name: "some data"}, nil)

				require.NoError(t, err)
				assert.Equal(t, "some encoded data", transport.last(t).body)
				assert.Equal(t, "http://example.com/foo", transport.last(t).url)
			})

			t.Run("passes data unchanged without encoder", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, nil)
				data := map[string]string{"a": "b"}

				_, err := c.Request(context.Background(), method, "/foo", data, nil)

				require.NoError(t, err)
				assert.Equal(t, data, transport.last(t).body)
				assert.Equal(t, "http://example.com/foo", transport.last(t).url)
			})

			t.Run("sends no body for nil data", func(t *testing.T) {
				transport := newFakeTransport()
				called := false
				c := newTestClient(t, transport, NewProfile(EncodeWith(func(any) (any, error) {
					called = true
					return "encoded", nil
				})))

				_, err := c.Request(context.Background(), method, "/foo", nil, nil)

				require.NoError(t, err)
				assert.Nil(t, transport.last(t).body)
				assert.False(t, called)
			})

			t.Run("treats nil maps and slices as no data", func(t *testing.T) {
				for _, data := range []any{map[string]any(nil), Params(nil), []byte(nil), (*struct{})(nil)} {
					transport := newFakeTransport()
					called := false
					c := newTestClient(t, transport, NewProfile(EncodeWith(func(any) (any, error) {
						called = true
						return "null", nil
					})))

					_, err := c.Request(context.Background(), method, "/foo", data, nil)

					require.NoError(t, err)
					assert.Nil(t, transport.last(t).body, "%T", data)
					assert.False(t, called, "%T", data)
				}
			})

			t.Run("encoder failure stops the request", func(t *testing.T) {
				transport := newFakeTransport()
				bad := errors.New("cannot encode")
				c := newTestClient(t, transport, NewProfile(EncodeWith(func(any) (any, error) {
					return nil, bad
				})))

				_, err := c.Request(context.Background(), method, "/foo", "data", nil)

				assert.ErrorIs(t, err, bad)
				assert.Empty(t, transport.calls)
			})
		})
	}
}

func TestClient_QuerystringData(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			t.Run("adds data as querystring params", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, nil)

				_, err := c.Request(context.Background(), method, "/foo", Query("bar", "baz", "yak", "shaved"), nil)

				require.NoError(t, err)
				last := transport.last(t)
				assert.Equal(t, "http://example.com/foo?bar=baz&yak=shaved", last.url)
				assert.Equal(t, map[string]string{}, last.headers)
				assert.False(t, last.hasBody)
			})

			t.Run("keeps insertion order", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, nil)

				_, err := c.Request(context.Background(), method, "/foo", Query("yak", "shaved", "bar", "baz"), nil)

				require.NoError(t, err)
				assert.Equal(t, "http://example.com/foo?yak=shaved&bar=baz", transport.last(t).url)
			})

			t.Run("never runs the encoder", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, NewProfile(EncodeWith(func(any) (any, error) {
					return nil, errors.New("should not be called")
				})))

				_, err := c.Request(context.Background(), method, "/foo", map[string]string{"a": "1"}, nil)

				require.NoError(t, err)
				assert.Equal(t, "http://example.com/foo?a=1", transport.last(t).url)
			})

			t.Run("rejects unsupported data", func(t *testing.T) {
				transport := newFakeTransport()
				c := newTestClient(t, transport, nil)

				_, err := c.Request(context.Background(), method, "/foo", 42, nil)

				assert.ErrorIs(t, err, ErrUnsupportedQuery)
				assert.Empty(t, transport.calls)
			})
		})
	}
}

func TestClient_URL(t *testing.T) {
	c := newTestClient(t, newFakeTransport(), nil)

	tests := []struct {
		name   string
		method string
		path   string
		data   any
		want   string
	}{
		{"absolute path", "GET", "/foo", nil, "http://example.com/foo"},
		{"relative path", "GET", "foo/bar", nil, "http://example.com/foo/bar"},
		{"absolute url", "GET", "http://other.test/x", nil, "http://other.test/x"},
		{"existing query", "GET", "/foo?a=1", Query("b", "2"), "http://example.com/foo?a=1&b=2"},
		{"escaped values", "DELETE", "/foo", Query("q", "a b&c"), "http://example.com/foo?q=a+b%26c"},
		{"url values", "GET", "/foo", url.Values{"z": {"1"}, "a": {"2", "3"}}, "http://example.com/foo?a=2&a=3&z=1"},
		{"post ignores data", "POST", "/foo", Query("a", "1"), "http://example.com/foo"},
		{"empty params", "GET", "/foo", Params{}, "http://example.com/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.URL(tt.method, tt.path, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ResolvesAgainstBasePath(t *testing.T) {
	transport := newFakeTransport()
	c, err := New(staticConfig("http://example.com/api/"), transport, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "widgets", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/widgets", transport.last(t).url)
}

func TestClient_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	transport := newFakeTransport()
	transport.response = &Response{StatusCode: 404}
	c, err := New(staticConfig("http://example.com"), transport, nil, WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/missing", nil, nil)

	assert.True(t, IsStatus(err, 404))
	entries := logs.FilterMessage("response received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
}

func TestAs(t *testing.T) {
	s, err := As[string]("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = As[int]("hello", nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = As[string](nil, boom)
	assert.ErrorIs(t, err, boom)
}
