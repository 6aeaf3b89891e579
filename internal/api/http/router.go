package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-mini/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-mini/internal/auth"
	"github.com/spec-kit/helpdesk-mini/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter)
	}
	api.Get("/", cfg.Health.Info)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/profile", cfg.Users.Profile)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	users := protected.Group("/users")
	users.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Users.ListUsers)
	users.Get("/agents", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Users.ListAgents)
	users.Patch("/:id/role", auth.RequireRole(domain.RoleAdmin), cfg.Users.UpdateRole)
	users.Patch("/:id/deactivate", auth.RequireRole(domain.RoleAdmin), cfg.Users.Deactivate)
}
