package ratelimit

import "errors"

var ErrInvalidConfig = errors.New("ratelimit: limit and window must be positive")
