package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/transit-services/internal/api/http/handlers"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/domain"
)

// RegisterOpsRoutes wires probes and the metrics endpoint shared by every service.
func RegisterOpsRoutes(app *fiber.App, health *handlers.HealthHandler, gatherer prometheus.Gatherer) {
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// AuthRouteConfig bundles dependencies for the auth service.
type AuthRouteConfig struct {
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	// LoginLimiter guards the login route; nil disables it.
	LoginLimiter fiber.Handler
}

// RegisterAuthRoutes wires login and identity routes.
func RegisterAuthRoutes(app *fiber.App, cfg AuthRouteConfig) {
	group := app.Group("/api/auth")

	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter}, login...)
	}
	group.Post("/login", login...)
	group.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
}

// UserRouteConfig bundles dependencies for the user service.
type UserRouteConfig struct {
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

var profileCollections = map[domain.Role]string{
	domain.RoleAdmin:     "admins",
	domain.RoleOperator:  "operators",
	domain.RolePassenger: "passengers",
	domain.RoleDriver:    "drivers",
}

// RegisterUserRoutes wires registration, credential lookup and profile routes.
func RegisterUserRoutes(app *fiber.App, cfg UserRouteConfig) {
	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register(domain.RolePassenger))
	users.Post("/register/admin", cfg.Users.Register(domain.RoleAdmin))
	users.Post("/register/operator", cfg.Users.Register(domain.RoleOperator))
	users.Post("/register/driver", cfg.Users.Register(domain.RoleDriver))
	users.Get("/by-email/:email", cfg.Users.ByEmail)

	for _, role := range domain.Roles {
		group := api.Group("/"+profileCollections[role], cfg.AuthMiddleware.Handle)
		group.Get("/", cfg.Users.List(role))
		group.Get("/:id", cfg.Users.Get(role))
		group.Patch("/:id", cfg.Users.Update(role))
		group.Delete("/:id", cfg.Users.Delete(role))
	}
}

// TripRouteConfig bundles dependencies for the trip service.
type TripRouteConfig struct {
	Trips          *handlers.TripsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterTripRoutes wires public reads and staff-only writes.
func RegisterTripRoutes(app *fiber.App, cfg TripRouteConfig) {
	trips := app.Group("/trips")
	trips.Get("/", cfg.Trips.List)
	trips.Get("/search", cfg.Trips.Search)
	trips.Get("/:id", cfg.Trips.Get)

	staff := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin, domain.RoleOperator)}
	trips.Post("/", append(staff, cfg.Trips.Create)...)
	trips.Put("/:id", append(staff, cfg.Trips.Update)...)
	trips.Delete("/:id", append(staff, cfg.Trips.Delete)...)
}
