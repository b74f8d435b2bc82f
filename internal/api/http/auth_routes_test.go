package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/transit-services/internal/api/dto"
	"github.com/spec-kit/transit-services/internal/api/http/handlers"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/ratelimit"
	"github.com/spec-kit/transit-services/internal/service"
)

const formType = "application/x-www-form-urlencoded"

// fakeUserService answers credential lookups the way the user service does.
func fakeUserService(t *testing.T) *httptest.Server {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/by-email/a@x.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Credential{
			PublicIdentity: domain.PublicIdentity{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Role: domain.RolePassenger},
			PasswordHash:   string(digest),
		})
	}))
}

func newAuthApp(t *testing.T, limiter fiber.Handler) (*fiber.App, *prometheus.Registry, *auth.TokenManager) {
	t.Helper()
	upstream := fakeUserService(t)
	t.Cleanup(upstream.Close)

	app, reg, metrics := newTestApp(t)
	tokens := auth.NewTokenManager(testSecret, 30*time.Minute)
	client := collaborator.NewClient(time.Second, nil, collaborator.WithMetrics(metrics))
	svc := service.NewAuthService(service.AuthDependencies{
		Directory: collaborator.NewUserDirectory(client, upstream.URL, ""),
		Hasher:    auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:    tokens,
		Metrics:   metrics,
	})

	RegisterOpsRoutes(app, handlers.NewHealthHandler("auth-service", "test", nil), reg)
	RegisterAuthRoutes(app, AuthRouteConfig{
		Auth:           handlers.NewAuthHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, nil),
		LoginLimiter:   limiter,
	})
	return app, reg, tokens
}

func loginForm(username, password string) string {
	return url.Values{"username": {username}, "password": {password}}.Encode()
}

func TestLoginReturnsDecodableToken(t *testing.T) {
	app, _, tokens := newAuthApp(t, nil)

	resp, body := doRequest(t, app, http.MethodPost, "/api/auth/login", formType, loginForm("a@x.com", "secret"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "bearer", out.TokenType)
	assert.Equal(t, "a@x.com", out.User.Email)
	assert.Equal(t, domain.RolePassenger, out.User.Role)

	claims, err := tokens.Decode(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, domain.RolePassenger, claims.Role)
	assert.NotContains(t, string(body), "password_hash")
}

func TestLoginWrongPasswordIsGeneric401(t *testing.T) {
	app, _, _ := newAuthApp(t, nil)

	for _, form := range []string{loginForm("a@x.com", "nope"), loginForm("ghost@x.com", "secret"), loginForm("", "")} {
		resp, body := doRequest(t, app, http.MethodPost, "/api/auth/login", formType, form, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, body))
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	}
}

func TestMeResolvesThroughUserService(t *testing.T) {
	app, _, _ := newAuthApp(t, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/api/auth/me", "", "", bearerFor(t, "a@x.com", domain.RolePassenger))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me domain.PublicIdentity
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "Ann", me.FirstName)

	resp, body = doRequest(t, app, http.MethodGet, "/api/auth/me", "", "", bearerFor(t, "ghost@x.com", domain.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestMeRejectsBadHeaders(t *testing.T) {
	app, _, _ := newAuthApp(t, nil)

	cases := map[string]string{
		"":                 "MISSING_CREDENTIALS",
		"Token abc":        "MALFORMED_HEADER",
		"Bearer not.a.jwt": "UNAUTHORIZED",
	}
	for header, code := range cases {
		resp, body := doRequest(t, app, http.MethodGet, "/api/auth/me", "", "", header)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
		assert.Equal(t, code, errorCode(t, body), header)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	}
}

func TestMeUpstreamDown(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	svc := service.NewAuthService(service.AuthDependencies{
		Directory: collaborator.NewUserDirectory(collaborator.NewClient(time.Second, nil), "http://127.0.0.1:1", ""),
		Hasher:    auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:    tokens,
	})
	app, _, _ := newTestApp(t)
	RegisterAuthRoutes(app, AuthRouteConfig{Auth: handlers.NewAuthHandler(svc), AuthMiddleware: auth.NewAuthMiddleware(tokens, nil)})

	resp, body := doRequest(t, app, http.MethodGet, "/api/auth/me", "", "", bearerFor(t, "a@x.com", domain.RolePassenger))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", errorCode(t, body))
}

func TestLoginLimiter(t *testing.T) {
	app, _, _ := newAuthApp(t, ratelimit.NewIPLimiter(1, 1).Handler())

	resp, _ := doRequest(t, app, http.MethodPost, "/api/auth/login", formType, loginForm("a@x.com", "nope"), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doRequest(t, app, http.MethodPost, "/api/auth/login", formType, loginForm("a@x.com", "secret"), "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, body))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestOpsRoutes(t *testing.T) {
	app, _, _ := newAuthApp(t, nil)

	resp, _ := doRequest(t, app, http.MethodGet, "/health/live", "", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/health/ready", "", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	doRequest(t, app, http.MethodPost, "/api/auth/login", formType, loginForm("a@x.com", "nope"), "")
	resp, body := doRequest(t, app, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `transit_http_errors_total{code="INVALID_CREDENTIALS"`), string(body))
	assert.Contains(t, string(body), `transit_login_attempts_total{result="invalid_credentials"`)
	assert.Contains(t, string(body), "transit_upstream_requests_total")
}

func TestUnusableUpstreamRecordIsBadGateway(t *testing.T) {
	bodies := map[string]string{
		"null":         `null`,
		"empty object": `{}`,
		"missing role": `{"id":1,"first_name":"Ann","last_name":"Lee","email":"a@x.com","password_hash":"$2a$04$abcdefghijklmnopqrstuu"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer upstream.Close()

			tokens := auth.NewTokenManager(testSecret, time.Hour)
			svc := service.NewAuthService(service.AuthDependencies{
				Directory: collaborator.NewUserDirectory(collaborator.NewClient(time.Second, nil), upstream.URL, ""),
				Hasher:    auth.NewPasswordHasher(bcrypt.MinCost),
				Tokens:    tokens,
			})
			app, _, _ := newTestApp(t)
			RegisterAuthRoutes(app, AuthRouteConfig{Auth: handlers.NewAuthHandler(svc), AuthMiddleware: auth.NewAuthMiddleware(tokens, nil)})

			resp, out := doRequest(t, app, http.MethodGet, "/api/auth/me", "", "", bearerFor(t, "a@x.com", domain.RolePassenger))
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode, string(out))
			assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, out))

			resp, out = doRequest(t, app, http.MethodPost, "/api/auth/login", formType, loginForm("a@x.com", "secret"), "")
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode, string(out))
			assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, out))
		})
	}
}
