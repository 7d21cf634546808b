package http

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solicitudes-service/internal/api/http/handlers"
	"github.com/spec-kit/solicitudes-service/internal/auth"
	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	AdminRequests  *handlers.AdminRequestsHandler
	AdminAuth      *handlers.AdminAuthHandler
	Workflow       *handlers.WorkflowHandler
	AuthMiddleware *auth.AuthMiddleware
	// Prometheus, when set, instruments every route and serves /metrics.
	Prometheus *fiberprometheus.FiberPrometheus
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Prometheus != nil {
		cfg.Prometheus.RegisterAt(app, "/metrics")
		app.Use(cfg.Prometheus.Middleware)
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/workflow/states", cfg.Workflow.States)
	app.Get("/workflow/diagram", cfg.Workflow.Diagram)

	app.Post("/requests", cfg.Requests.CreateRequest)
	app.Get("/requests/:id", cfg.Requests.GetRequest)

	authGroup := app.Group("/auth")
	authGroup.Post("/admin/login", cfg.AdminAuth.Login)
	authGroup.Get("/admin/me", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.AdminAuth.Me)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.AdminRoleProcess, domain.AdminRoleSupervisor))
	admin.Get("/requests", cfg.AdminRequests.ListRequests)
	admin.Get("/requests/:id", cfg.AdminRequests.GetRequest)
	admin.Patch("/requests/:id", cfg.AdminRequests.UpdateRequest)
	admin.Get("/requests/:id/transitions", cfg.AdminRequests.Transitions)
	admin.Post("/requests/:id/attachments", cfg.AdminRequests.UploadAttachment)
	admin.Get("/requests/:id/attachments/:attachmentId", cfg.AdminRequests.DownloadAttachment)
	admin.Get("/metrics/pauses", cfg.AdminRequests.PauseMetrics)
}
