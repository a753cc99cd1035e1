package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/helpdesk-kit/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Attachments    *handlers.AttachmentsHandler
	Notifications  *handlers.NotificationsHandler
	Audit          *handlers.AuditHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	MetricsHandler http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(cfg.MetricsHandler)
		app.Get("/metrics", func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuth())
	protected.Get("/auth/me", cfg.Auth.Me)

	protected.Post("/tickets", cfg.Tickets.Create)
	protected.Get("/tickets", cfg.Tickets.List)
	protected.Get("/tickets/:id", cfg.Tickets.Get)

	protected.Post("/comments", cfg.Comments.Create)
	protected.Get("/comments", cfg.Comments.List)

	protected.Post("/attachments", cfg.Attachments.Upload)
	protected.Get("/attachments", cfg.Attachments.List)
	protected.Get("/attachments/:id/download", cfg.Attachments.Download)
	protected.Delete("/attachments/:id", cfg.Attachments.Delete)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Patch("/notifications/:id/read", cfg.Notifications.MarkRead)
	protected.Patch("/notifications/read-all", cfg.Notifications.MarkAllRead)
	protected.Delete("/notifications/:id", cfg.Notifications.Delete)

	admin := protected.Group("", auth.RequireAdmin())
	admin.Put("/tickets/:id", cfg.Tickets.Update)
	admin.Patch("/tickets/:id/reassign", cfg.Tickets.Reassign)
	admin.Get("/audit", cfg.Audit.List)
	admin.Get("/users", cfg.Users.List)
	admin.Patch("/users/:id/role", cfg.Users.ChangeRole)
	admin.Get("/users/stats/dashboard", cfg.Users.DashboardStats)
}
