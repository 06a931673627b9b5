package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/api/http/handlers"
	"github.com/labdesk/helpdesk/internal/auth"
	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/events"
	"github.com/labdesk/helpdesk/internal/observability"
	"github.com/labdesk/helpdesk/internal/persistence"
	"github.com/labdesk/helpdesk/internal/repository"
	"github.com/labdesk/helpdesk/internal/service"
)

// Dependencies are the infrastructure pieces a backend runs on. Nil
// repositories fall back to in-memory ones; a nil queue disables notifications.
type Dependencies struct {
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Queue      persistence.Queue
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
}

// Backend is a wired fiber app plus the services behind it.
type Backend struct {
	App           *fiber.App
	Auth          *service.AuthService
	Tickets       *service.TicketService
	Notifications *service.NotificationService
}

// NewBackend wires services, handlers and routes.
func NewBackend(cfg config.Config, deps Dependencies) *Backend {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.TicketRepo == nil {
		deps.TicketRepo = repository.NewMemoryTicketRepository()
	}
	if deps.UserRepo == nil {
		deps.UserRepo = repository.NewMemoryUserRepository()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, deps.Queue, logger, cfg.Notification)
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   deps.UserRepo,
		CodeSender: notifications.SendConfirmationCode,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: deps.TicketRepo,
		Dispatcher: dispatcher,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             handlers.MaxUploadBytes + 1<<20,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout())
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, cfg.App.ListEnvelope),
		Uploads:        handlers.NewUploadsHandler(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), cfg.Auth.AdminGroup),
		Metrics:        deps.Metrics,
		UploadDir:      cfg.Storage.UploadDir,
	})

	return &Backend{App: app, Auth: authService, Tickets: ticketService, Notifications: notifications}
}
