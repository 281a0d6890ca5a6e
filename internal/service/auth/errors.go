package auth

import "errors"

// Token validation errors. The HTTP layer tells clients only whether the
// token expired.
var (
	ErrInvalidToken     = errors.New("invalid bearer token")
	ErrExpiredToken     = errors.New("bearer token expired")
	ErrTokenNotYetValid = errors.New("bearer token not valid yet")
	ErrMissingToken     = errors.New("bearer token missing")
)
