// Package http provides the transports an apiclient.Client dispatches to.
//
// Client wraps the standard library's http package with:
//   - Configurable timeouts
//   - Redirect handling
//   - TLS verification and proxy settings
//   - Optional request-rate limiting
//
// RestyClient offers the same surface on top of go-resty and reports
// non-2xx responses as *StatusError.
package http
