package domain

import "time"

// Identity is the authenticated caller derived from a verified token.
// It lives for one request and is never persisted.
type Identity struct {
	Email string
	Role  Role
}

// IssuedToken describes an access token handed to a client.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
