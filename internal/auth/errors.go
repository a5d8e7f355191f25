package auth

import "errors"

// Token errors.
var (
	// ErrTokenMissing indicates no bearer token was presented.
	ErrTokenMissing = errors.New("access token required")

	// ErrTokenInvalid covers bad signatures, wrong algorithms, malformed and expired tokens.
	ErrTokenInvalid = errors.New("invalid or expired token")
)
