// Package apiclient drives a backend API from test code.
//
// A Client sits between the test author and an injected Transport and adds:
//   - Global headers declared once on a Profile, merged with per-call headers
//   - Optional request-body encoding and response-body decoding hooks
//   - Querystring construction for GET and DELETE data
//   - Translation of non-2xx responses into *UnexpectedResponse
//
// Profiles are immutable. A more specific variant is derived with Extend,
// which copies the parent and applies further options on top.
package apiclient
