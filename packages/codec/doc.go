// Package codec provides the encoders and decoders a Profile can run
// request and response bodies through.
//
// JSON and YAML come as Codec pairs that install both hooks at once:
//
//	profile := apiclient.NewProfile(codec.JSON().Option())
//
// The remaining helpers are single hooks: Form encodes request data as an
// url-encoded form, GJSON and JSONPath decode JSON responses lazily, and
// ValidateSchema checks a body against a JSON schema before decoding it.
package codec
