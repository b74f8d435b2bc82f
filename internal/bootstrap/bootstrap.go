// Package bootstrap holds the startup and shutdown steps every service binary shares.
package bootstrap

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/transit-services/internal/api/http"
	"github.com/spec-kit/transit-services/internal/config"
	"github.com/spec-kit/transit-services/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Runtime is the ambient state of one service process.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []func(context.Context) error
}

// Init loads configuration, then builds the logger, the metrics registry and tracing.
// Failures here are fatal.
func Init(ctx context.Context, serviceName string) *Runtime {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  observability.NewMetrics(cfg.App.Name, reg),
	}

	shutdownTracer, err := observability.InitTracer(ctx, cfg.App.Name, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	rt.OnShutdown(shutdownTracer)
	return rt
}

// OnShutdown registers fn to run after the server stops, in reverse order.
func (rt *Runtime) OnShutdown(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// NewApp returns a fiber app with the global middlewares attached.
func (rt *Runtime) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               rt.Config.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, rt.Logger, rt.Metrics, rt.Config.App.RequestTimeout())
	return app
}

// Serve listens until SIGINT or SIGTERM, then shuts down.
func (rt *Runtime) Serve(app *fiber.App) {
	addr := rt.Config.App.Addr()
	go func() {
		rt.Logger.Info("listening", zap.String("addr", addr), zap.String("version", rt.Config.App.Version))
		if err := app.Listen(addr); err != nil {
			rt.Logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(rt.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		rt.Logger.Warn("server shutdown", zap.Error(err))
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.Logger.Warn("shutdown hook failed", zap.Error(err))
		}
	}
	_ = rt.Logger.Sync()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
