package cookie

import "errors"

var (
	ErrNoSecret         = errors.New("at least one signing secret is required")
	ErrCookieNotFound   = errors.New("cookie not found")
	ErrInvalidFormat    = errors.New("invalid signed cookie format")
	ErrInvalidSignature = errors.New("cookie signature mismatch")
)
