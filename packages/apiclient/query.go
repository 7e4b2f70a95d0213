package apiclient

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Param is one querystring key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of querystring pairs. Unlike a map it keeps the
// order the caller wrote, which keeps URLs stable for assertions.
type Params []Param

// Query builds Params from alternating keys and values. A trailing key with
// no value gets an empty one.
func Query(pairs ...string) Params {
	params := make(Params, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		p := Param{Key: pairs[i]}
		if i+1 < len(pairs) {
			p.Value = pairs[i+1]
		}
		params = append(params, p)
	}
	return params
}

// Add returns params with one more pair appended.
func (ps Params) Add(key, value string) Params {
	return append(ps, Param{Key: key, Value: value})
}

// Encode serializes the pairs as key=value joined by '&', in order.
func (ps Params) Encode() string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// toParams flattens the data shapes accepted for GET and DELETE. Maps carry
// no insertion order in Go, so their keys are sorted.
func toParams(data any) (Params, error) {
	switch v := data.(type) {
	case Params:
		return v, nil
	case []Param:
		return Params(v), nil
	case url.Values:
		return multiParams(v), nil
	case map[string][]string:
		return multiParams(v), nil
	case map[string]string:
		params := make(Params, 0, len(v))
		for _, k := range sortedKeys(v) {
			params = append(params, Param{Key: k, Value: v[k]})
		}
		return params, nil
	case map[string]any:
		params := make(Params, 0, len(v))
		for _, k := range sortedKeys(v) {
			params = append(params, Param{Key: k, Value: fmt.Sprint(v[k])})
		}
		return params, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedQuery, data)
	}
}

func multiParams(m map[string][]string) Params {
	params := make(Params, 0, len(m))
	for _, k := range sortedKeys(m) {
		for _, val := range m[k] {
			params = append(params, Param{Key: k, Value: val})
		}
	}
	return params
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appendQuery adds data to path as a querystring, before the path is
// resolved against the base URL.
func appendQuery(path string, data any) (string, error) {
	params, err := toParams(data)
	if err != nil {
		return "", err
	}
	qs := params.Encode()
	if qs == "" {
		return path, nil
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + qs, nil
}
