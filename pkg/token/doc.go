// Package token implements a compact signed-token codec used for magic
// links and other self-contained grants. A token is the base64url-encoded
// JSON payload joined with an HMAC-SHA256 signature; verification is
// stateless and constant-time.
package token
