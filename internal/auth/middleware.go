package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/domain"
	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// TokenDecoder is the slice of TokenManager the middleware needs.
type TokenDecoder interface {
	Decode(token string) (*Claims, error)
}

// AuthMiddleware validates bearer tokens and attaches the caller identity.
// It does not check roles; see RequireRole.
type AuthMiddleware struct {
	tokens TokenDecoder
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenDecoder, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// Authenticate runs the header through parse and decode in a single pass.
func (m *AuthMiddleware) Authenticate(authHeader string) (domain.Identity, error) {
	if strings.TrimSpace(authHeader) == "" {
		return domain.Identity{}, reject(apperrors.NewMissingCredentials(), ErrMissingCredentials)
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[1] == "" || !strings.EqualFold(parts[0], "bearer") {
		return domain.Identity{}, reject(apperrors.NewMalformedHeader(), ErrMalformedHeader)
	}

	claims, err := m.tokens.Decode(parts[1])
	if err != nil {
		m.logger.Debug("token rejected", zap.String("reason", Classify(err)), zap.Error(err))
		return domain.Identity{}, reject(apperrors.NewUnauthorized("could not validate credentials"), errors.Join(ErrUnauthorized, err))
	}
	return claims.Identity(), nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	c.Locals(identityKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
	return c.Next()
}

// reject keeps the client-facing error generic while preserving the cause for errors.Is.
func reject(public error, cause error) error {
	return apperrors.Wrap(apperrors.ToDomainError(public), cause)
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

// WithIdentity stores identity on a standard context for service code.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromUserContext is the context.Context counterpart of IdentityFromContext.
func IdentityFromUserContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return identity, ok
}
