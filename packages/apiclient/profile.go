package apiclient

import (
	"github.com/google/uuid"
)

type header struct {
	name  string
	value func() string
}

// Profile is the configured variant a Client runs with: global headers in
// declaration order plus the optional encode and decode hooks. A Profile is
// never mutated after construction, so one value can back any number of
// clients concurrently.
type Profile struct {
	headers []header
	encoder Encoder
	decoder Decoder
}

// ProfileOption configures a Profile while it is being built.
type ProfileOption func(*Profile)

// NewProfile builds a Profile from the given options.
func NewProfile(opts ...ProfileOption) *Profile {
	p := &Profile{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extend returns a copy of p with opts applied on top. The receiver is left
// untouched; a nil receiver behaves like an empty Profile.
func (p *Profile) Extend(opts ...ProfileOption) *Profile {
	child := &Profile{}
	if p != nil {
		child.headers = append([]header(nil), p.headers...)
		child.encoder = p.encoder
		child.decoder = p.decoder
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Header declares a global header sent with every request. Redeclaring a
// name replaces its value but keeps its original position.
func Header(name, value string) ProfileOption {
	return HeaderFunc(name, func() string { return value })
}

// HeaderFunc declares a global header whose value is computed for each call.
func HeaderFunc(name string, fn func() string) ProfileOption {
	return func(p *Profile) {
		for i := range p.headers {
			if p.headers[i].name == name {
				p.headers[i].value = fn
				return
			}
		}
		p.headers = append(p.headers, header{name: name, value: fn})
	}
}

// RequestID declares a header carrying a fresh UUID on every call.
func RequestID(name string) ProfileOption {
	return HeaderFunc(name, uuid.NewString)
}

// EncodeWith sets the request-body encoder. A nil fn removes an inherited one.
func EncodeWith(fn Encoder) ProfileOption {
	return func(p *Profile) {
		p.encoder = fn
	}
}

// DecodeWith sets the response-body decoder. A nil fn removes an inherited one.
func DecodeWith(fn Decoder) ProfileOption {
	return func(p *Profile) {
		p.decoder = fn
	}
}

// HeaderNames returns the global header names in declaration order.
func (p *Profile) HeaderNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.headers))
	for i, h := range p.headers {
		names[i] = h.name
	}
	return names
}

// Headers returns a fresh map of the global headers.
func (p *Profile) Headers() map[string]string {
	return p.merge(nil)
}

// merge composes the headers for one call. Call headers win over global
// ones with the same name; names are compared exactly as given.
func (p *Profile) merge(call map[string]string) map[string]string {
	result := make(map[string]string, p.headerCount()+len(call))
	if p != nil {
		for _, h := range p.headers {
			result[h.name] = h.value()
		}
	}
	for k, v := range call {
		result[k] = v
	}
	return result
}

func (p *Profile) headerCount() int {
	if p == nil {
		return 0
	}
	return len(p.headers)
}

func (p *Profile) encode(data any) (any, error) {
	if p == nil || p.encoder == nil {
		return data, nil
	}
	return p.encoder(data)
}

func (p *Profile) decode(body []byte) (any, error) {
	if p == nil || p.decoder == nil {
		return body, nil
	}
	return p.decoder(body)
}
