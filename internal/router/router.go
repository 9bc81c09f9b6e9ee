package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/horas-api/internal/config"
	"github.com/noah-isme/horas-api/internal/handler"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ActivityListHandler *handler.ActivityListHandler
	StudentHandler      *handler.StudentHandler
	ActivityHandler     *handler.ActivityHandler
	ProgressHandler     *handler.ProgressHandler
	ReportHandler       *handler.ReportHandler
	DocumentHandler     *handler.DocumentHandler
	DashboardHandler    *handler.DashboardHandler
	AuditHandler        *handler.AuditHandler
	HealthChecks        map[string]handler.HealthCheck
	JWTMiddleware       fiber.Handler
	LoginLimiter        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.Health(cfg, deps.HealthChecks))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	staff := middleware.RequireRole(models.RoleCoordinator, models.RoleMonitor)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.LoginLimiter, jwtMiddleware)
	}

	if deps.ActivityListHandler != nil {
		lists := api.Group("/lists", jwtMiddleware, staff)
		deps.ActivityListHandler.Register(lists)
		if deps.ReportHandler != nil {
			deps.ReportHandler.Register(lists)
		}
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware, staff)
		// nested routes first so /:id does not shadow them
		if deps.ActivityHandler != nil {
			deps.ActivityHandler.RegisterStudentRoutes(students)
		}
		if deps.ProgressHandler != nil {
			deps.ProgressHandler.Register(students)
		}
		deps.StudentHandler.Register(students)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", jwtMiddleware, staff))
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(api.Group("/documents", jwtMiddleware, staff))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware, staff))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/audit", jwtMiddleware, staff))
	}
}
