package main

import (
	"context"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/transit-services/internal/api/http"
	"github.com/spec-kit/transit-services/internal/api/http/handlers"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/bootstrap"
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/persistence"
	"github.com/spec-kit/transit-services/internal/repository"
	"github.com/spec-kit/transit-services/internal/service"
	"github.com/spec-kit/transit-services/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := bootstrap.Init(ctx, "user-service")
	cfg, logger := rt.Config, rt.Logger

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	rt.OnShutdown(func(context.Context) error { pg.Close(); return nil })

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsUsers, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger), events.UserEvents...)

	users := service.NewUserService(
		repository.NewUserRepository(pg.PoolHandle()),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		dispatcher,
		logger,
	)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	app := rt.NewApp()
	httptransport.RegisterOpsRoutes(app, handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{"postgres": pg}), rt.Registry)
	httptransport.RegisterUserRoutes(app, httptransport.UserRouteConfig{
		Users:          handlers.NewUsersHandler(users, cfg.Auth.InternalAPIKey),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
	})

	rt.Serve(app)
}
