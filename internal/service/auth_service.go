package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/observability"
	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

// CredentialDirectory resolves stored credentials by email.
type CredentialDirectory interface {
	LookupByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

// LoginThrottle limits repeated failures per username.
type LoginThrottle interface {
	Locked(ctx context.Context, username string) bool
	RecordFailure(ctx context.Context, username string)
	Reset(ctx context.Context, username string)
}

type noThrottle struct{}

func (noThrottle) Locked(context.Context, string) bool  { return false }
func (noThrottle) RecordFailure(context.Context, string) {}
func (noThrottle) Reset(context.Context, string)         {}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token domain.IssuedToken
	User  domain.PublicIdentity
}

// AuthService coordinates login and identity resolution.
type AuthService struct {
	directory CredentialDirectory
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	throttle  LoginThrottle
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Directory CredentialDirectory
	Hasher    *auth.PasswordHasher
	Tokens    *auth.TokenManager
	Throttle  LoginThrottle
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		directory: deps.Directory,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		throttle:  deps.Throttle,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if s.throttle == nil {
		s.throttle = noThrottle{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Login checks username and password against the user directory and issues a token.
// Unknown users and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.metrics.RecordLogin("invalid_credentials")
		return nil, apperrors.NewInvalidCredentials()
	}

	if s.throttle.Locked(ctx, username) {
		s.metrics.RecordLogin("throttled")
		s.logger.Warn("login throttled", zap.String("username", username))
		return nil, apperrors.NewTooManyAttempts()
	}

	cred, err := s.directory.LookupByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, collaborator.ErrNotFound) {
			s.rejectLogin(ctx, username, "unknown user")
			return nil, apperrors.NewInvalidCredentials()
		}
		s.metrics.RecordLogin("upstream_failure")
		return nil, upstreamError("user-service", err)
	}

	ok, err := s.hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		s.metrics.RecordLogin("error")
		s.logger.Error("stored password digest unusable", zap.Int64("user_id", cred.ID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		s.rejectLogin(ctx, username, "password mismatch")
		return nil, apperrors.NewInvalidCredentials()
	}

	token, err := s.tokens.Issue(cred.Email, cred.Role, 0)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, apperrors.NewInternalError(err)
	}

	s.throttle.Reset(ctx, username)
	s.metrics.RecordLogin("success")
	s.logger.Info("login succeeded", zap.Int64("user_id", cred.ID), zap.String("role", string(cred.Role)))
	return &LoginResult{Token: token, User: cred.PublicIdentity}, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, username, reason string) {
	s.throttle.RecordFailure(ctx, username)
	s.metrics.RecordLogin("invalid_credentials")
	s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", reason))
}

// CurrentUser re-reads the caller's record from user-service.
// A user deleted after the token was issued yields NotFound.
func (s *AuthService) CurrentUser(ctx context.Context, identity domain.Identity) (*domain.PublicIdentity, error) {
	cred, err := s.directory.LookupByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, collaborator.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, upstreamError("user-service", err)
	}
	public := cred.PublicIdentity
	return &public, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// upstreamError converts a collaborator failure into the public error.
func upstreamError(service string, err error) error {
	switch {
	case errors.Is(err, collaborator.ErrUnavailable):
		return apperrors.NewUpstreamUnavailable(service, err)
	case errors.Is(err, collaborator.ErrUpstream):
		return apperrors.NewUpstreamError(service, err)
	default:
		return apperrors.NewInternalError(err)
	}
}
