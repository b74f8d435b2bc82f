package auth

import "errors"

// Token decode failures. Callers reject all of them the same way; the
// distinction only feeds logging.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrMalformedClaims  = errors.New("token claims malformed")
)

// Classify names a decode failure for log fields.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrMalformedClaims):
		return "malformed_claims"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// Presentation failures raised by the middleware before or around decoding.
var (
	ErrMissingCredentials = errors.New("authorization header missing")
	ErrMalformedHeader    = errors.New("authorization header malformed")
	ErrUnauthorized       = errors.New("token rejected")
)
