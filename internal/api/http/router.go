package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/labdesk/helpdesk/internal/api/http/handlers"
	"github.com/labdesk/helpdesk/internal/auth"
	"github.com/labdesk/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	UploadDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/confirm", cfg.Auth.Confirm)
	authGroup.Post("/resend", cfg.Auth.Resend)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/new-password", cfg.Auth.NewPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuth(), cfg.Auth.Me)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}
	app.Post("/uploads", cfg.AuthMiddleware.Handle, auth.RequireAuth(), cfg.Uploads.Upload)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuth())
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(cfg.Metrics.Snapshot())
	})
}
