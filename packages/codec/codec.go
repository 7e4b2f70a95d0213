package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

// ErrUnsupportedData is returned when an encoder is given data it has no
// representation for.
var ErrUnsupportedData = errors.New("unsupported data")

// Codec pairs a request encoder with a response decoder.
type Codec struct {
	Name        string
	ContentType string
	Encode      apiclient.Encoder
	Decode      apiclient.Decoder
}

// Option installs both hooks on a Profile and declares the Content-Type
// header the encoder produces.
func (c Codec) Option() apiclient.ProfileOption {
	return func(p *apiclient.Profile) {
		apiclient.EncodeWith(c.Encode)(p)
		apiclient.DecodeWith(c.Decode)(p)
		if c.ContentType != "" {
			apiclient.Header("Content-Type", c.ContentType)(p)
		}
	}
}

// JSON encodes request data with encoding/json and decodes responses into
// the generic map/slice/float64 shapes.
func JSON() Codec {
	return Codec{
		Name:        "json",
		ContentType: "application/json",
		Encode:      encodeJSON,
		Decode:      decodeJSON,
	}
}

func encodeJSON(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return json.RawMessage(raw), nil
}

func decodeJSON(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return v, nil
}

// YAML encodes and decodes with gopkg.in/yaml.v3.
func YAML() Codec {
	return Codec{
		Name:        "yaml",
		ContentType: "application/yaml",
		Encode:      encodeYAML,
		Decode:      decodeYAML,
	}
}

func encodeYAML(data any) (any, error) {
	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return out, nil
}

func decodeYAML(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := yaml.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return v, nil
}

// Form returns an encoder producing url.Values, which transports send as
// application/x-www-form-urlencoded.
func Form() apiclient.Encoder {
	return encodeForm
}

func encodeForm(data any) (any, error) {
	switch v := data.(type) {
	case url.Values:
		return v, nil
	case apiclient.Params:
		form := url.Values{}
		for _, p := range v {
			form.Add(p.Key, p.Value)
		}
		return form, nil
	case map[string]string:
		form := url.Values{}
		for k, val := range v {
			form.Set(k, val)
		}
		return form, nil
	case map[string][]string:
		return url.Values(v), nil
	case map[string]any:
		form := url.Values{}
		for _, k := range sortedKeys(v) {
			switch val := v[k].(type) {
			case []string:
				form[k] = append(form[k], val...)
			case []any:
				for _, item := range val {
					form.Add(k, fmt.Sprint(item))
				}
			default:
				form.Set(k, fmt.Sprint(val))
			}
		}
		return form, nil
	default:
		return nil, fmt.Errorf("form: %w: %T", ErrUnsupportedData, data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ByName returns the Codec registered under name ("json" or "yaml").
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON(), true
	case "yaml", "yml":
		return YAML(), true
	default:
		return Codec{}, false
	}
}
