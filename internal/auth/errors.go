package auth

import "errors"

var (
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidLink   = errors.New("invalid sign-in link")
	ErrExpiredLink   = errors.New("sign-in link has expired")
)
