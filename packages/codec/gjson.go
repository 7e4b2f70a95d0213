package codec

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

var (
	// ErrInvalidJSON is returned by the gjson decoders for non-JSON bodies.
	ErrInvalidJSON = errors.New("response body is not valid JSON")

	// ErrPathNotFound is returned by JSONPath when the path matches nothing.
	ErrPathNotFound = errors.New("path not found")
)

// GJSON returns a decoder that yields the parsed body as a gjson.Result,
// leaving field access to the caller.
func GJSON() apiclient.Decoder {
	return func(body []byte) (any, error) {
		if !gjson.ValidBytes(body) {
			return nil, ErrInvalidJSON
		}
		return gjson.ParseBytes(body), nil
	}
}

// JSONPath returns a decoder that extracts the value at path using gjson
// syntax. An empty path yields the whole document.
func JSONPath(path string) apiclient.Decoder {
	return func(body []byte) (any, error) {
		if !gjson.ValidBytes(body) {
			return nil, ErrInvalidJSON
		}
		if path == "" {
			return gjson.ParseBytes(body).Value(), nil
		}
		result := gjson.GetBytes(body, path)
		if !result.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return result.Value(), nil
	}
}
