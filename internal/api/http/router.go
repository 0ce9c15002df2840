package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/api/http/handlers"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Clients        *handlers.ClientsHandler
	Records        *handlers.RecordsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Each resource route carries the same
// access policy as its CLI command.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post("/auth/login", cfg.Auth.Login)

	guard := cfg.AuthMiddleware
	app.Get("/clients", guard.Require(auth.ReadOnlyFor(domain.RoleSales)), cfg.Clients.ListClients)
	app.Post("/clients", guard.Require(auth.RequireRoles(domain.RoleSales)), cfg.Clients.CreateClient)
	app.Get("/contracts", guard.Require(auth.ReadOnlyFor(domain.RoleManagement)), cfg.Records.ListContracts)
	app.Get("/events", guard.Require(auth.ReadOnlyFor(domain.RoleSupport)), cfg.Records.ListEvents)
	app.Get("/collaborators", guard.Require(auth.ReadOnlyFor(domain.RoleManagement)), cfg.Records.ListCollaborators)
}
