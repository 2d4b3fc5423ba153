package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Sign encodes the payload as JSON and appends an HMAC-SHA256 signature
// computed over the raw payload bytes. The result is URL-safe and can be
// embedded in links without further escaping.
func Sign[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)

	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// Verify checks the token signature and decodes the payload into T.
// Any structural defect reports ErrMalformedToken; a well-formed token
// signed with a different secret reports ErrSignatureInvalid.
func Verify[T any](tok string, secret string) (T, error) {
	var payload T

	encoded, sig, ok := strings.Cut(tok, ".")
	if !ok {
		return payload, ErrMalformedToken
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return payload, ErrMalformedToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return payload, ErrMalformedToken
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	if subtle.ConstantTimeCompare(got, h.Sum(nil)) != 1 {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrMalformedToken
	}

	return payload, nil
}
