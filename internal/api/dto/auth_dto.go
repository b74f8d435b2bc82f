package dto

import (
	"time"

	"github.com/spec-kit/transit-services/internal/domain"
)

// LoginRequest is the OAuth2 password form posted to the login route.
// Empty fields are rejected by the login flow as invalid credentials.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string                `json:"access_token"`
	TokenType   string                `json:"token_type"`
	ExpiresAt   time.Time             `json:"expires_at"`
	User        domain.PublicIdentity `json:"user"`
}
