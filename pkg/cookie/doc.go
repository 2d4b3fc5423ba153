// Package cookie provides a small manager for HTTP cookies with
// HMAC-signed values. Signed cookies carry the session identity
// (the user email) without server-side session storage; the manager
// supports secret rotation by accepting a list of secrets and
// verifying against each in order.
package cookie
