package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/queueflow/queue-service/internal/api/http/handlers"
	"github.com/queueflow/queue-service/internal/auth"
	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Checkin        *handlers.CheckinHandler
	Queue          *handlers.QueueHandler
	Categories     *handlers.CategoriesHandler
	Users          *handlers.UsersHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	// Public kiosk surface. No authentication: customers check in and
	// poll their token from shared terminals.
	app.Post("/checkin", cfg.Checkin.CheckIn)
	app.Get("/tickets/:token", cfg.Checkin.Status)
	app.Get("/categories", cfg.Categories.List)

	app.Post("/auth/login", cfg.Auth.Login)

	operator := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	operator.Post("/auth/password/change", cfg.Auth.ChangePassword)

	queue := operator.Group("/queue")
	queue.Get("/mine", cfg.Queue.MyQueue)
	queue.Post("/call-next", cfg.Queue.CallNext)
	queue.Post("/tickets/:id/call", cfg.Queue.Call)
	queue.Post("/tickets/:id/serve", cfg.Queue.Serve)
	queue.Post("/tickets/:id/complete", cfg.Queue.Complete)
	queue.Post("/tickets/:id/hold", cfg.Queue.Hold)
	queue.Post("/tickets/:id/reopen", cfg.Queue.Reopen)
	queue.Post("/tickets/:id/transfer", cfg.Queue.Transfer)
	queue.Put("/agents/:agentId/order", cfg.Queue.Reorder)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/categories", cfg.Categories.Create)
	admin.Put("/categories/:id", cfg.Categories.Update)
	admin.Get("/categories/:id", cfg.Categories.Get)
	admin.Get("/categories/:id/summary", cfg.Categories.Summary)

	admin.Post("/users", cfg.Users.Create)
	admin.Get("/users", cfg.Users.List)
	admin.Get("/users/:id", cfg.Users.Get)
	admin.Put("/users/:id", cfg.Users.Update)
	admin.Post("/users/:id/assignment", cfg.Users.AssignCategory)
	admin.Get("/users/:id/assignments", cfg.Users.Assignments)
	admin.Delete("/users/:id/assignment", cfg.Users.Unassign)

	admin.Get("/agents/:agentId/summary", cfg.Analytics.AgentSummary)
	admin.Post("/tickets/:id/cancel", cfg.Queue.Cancel)
	admin.Put("/tickets/:id", cfg.Queue.UpdateDetails)
	admin.Delete("/tickets/:id", cfg.Queue.Delete)
	admin.Get("/tickets", cfg.Queue.List)
}
