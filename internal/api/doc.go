// Package api implements the HTTP client for the reelfeed backend.
//
// The backend is an opaque REST service: JSON bodies, bearer-token
// authentication, and an optional message field on error responses. Every
// non-2xx response is surfaced as an *Error that unwraps to one of the
// services sentinel errors, so callers branch on failure class rather than
// HTTP status codes. A request that comes back 401 triggers the configured
// refresh callback once and is then retried a single time.
package api
