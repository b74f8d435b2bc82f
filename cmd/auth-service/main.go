package main

import (
	"context"

	httptransport "github.com/spec-kit/transit-services/internal/api/http"
	"github.com/spec-kit/transit-services/internal/api/http/handlers"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/bootstrap"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/persistence"
	"github.com/spec-kit/transit-services/internal/ratelimit"
	"github.com/spec-kit/transit-services/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := bootstrap.Init(ctx, "auth-service")
	cfg, logger := rt.Config, rt.Logger

	redis := persistence.NewRedis(cfg.Redis, logger)
	rt.OnShutdown(func(context.Context) error { redis.Close(); return nil })

	client := collaborator.NewClient(cfg.Upstream.Timeout(), logger, collaborator.WithMetrics(rt.Metrics))
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	authService := service.NewAuthService(service.AuthDependencies{
		Directory: collaborator.NewUserDirectory(client, cfg.Upstream.UserServiceURL, cfg.Auth.InternalAPIKey),
		Hasher:    auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:    tokens,
		Throttle:  ratelimit.NewLoginThrottle(redis.Handle(), cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout(), logger),
		Metrics:   rt.Metrics,
		Logger:    logger,
	})

	deps := map[string]handlers.Pinger{}
	if redis.Handle() != nil {
		deps["redis"] = redis
	}

	app := rt.NewApp()
	httptransport.RegisterOpsRoutes(app, handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps), rt.Registry)
	httptransport.RegisterAuthRoutes(app, httptransport.AuthRouteConfig{
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
		LoginLimiter:   ratelimit.NewIPLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst).Handler(),
	})

	rt.Serve(app)
}
