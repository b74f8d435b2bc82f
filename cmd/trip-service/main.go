package main

import (
	"context"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/transit-services/internal/api/http"
	"github.com/spec-kit/transit-services/internal/api/http/handlers"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/bootstrap"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/persistence"
	"github.com/spec-kit/transit-services/internal/repository"
	"github.com/spec-kit/transit-services/internal/service"
	"github.com/spec-kit/transit-services/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := bootstrap.Init(ctx, "trip-service")
	cfg, logger := rt.Config, rt.Logger

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	rt.OnShutdown(func(context.Context) error { pg.Close(); return nil })

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsTrips, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger), events.TripEvents...)

	client := collaborator.NewClient(cfg.Upstream.Timeout(), logger, collaborator.WithMetrics(rt.Metrics))
	checker := collaborator.NewResourceChecker(client, cfg.Upstream.RouteServiceURL, cfg.Upstream.BusServiceURL, cfg.Upstream.UserServiceURL)
	trips := service.NewTripService(repository.NewTripRepository(pg.PoolHandle()), checker, dispatcher, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	app := rt.NewApp()
	httptransport.RegisterOpsRoutes(app, handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{"postgres": pg}), rt.Registry)
	httptransport.RegisterTripRoutes(app, httptransport.TripRouteConfig{
		Trips:          handlers.NewTripsHandler(trips),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
	})

	rt.Serve(app)
}
