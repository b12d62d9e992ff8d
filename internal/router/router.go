package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumora-hq/lumora-api/internal/config"
	"github.com/lumora-hq/lumora-api/internal/handler"
	"github.com/lumora-hq/lumora-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QuizHandler         *handler.QuizHandler
	CourseHandler       *handler.CourseHandler
	WorkflowHandler     *handler.WorkflowHandler
	ContactHandler      *handler.ContactHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.QuizHandler != nil {
		quizzes := app.Group("/api/v1/quizzes", jwtMiddleware)
		deps.QuizHandler.Register(quizzes)
	}

	if deps.CourseHandler != nil {
		courses := app.Group("/api/v1/courses", jwtMiddleware)
		deps.CourseHandler.Register(courses)
	}

	if deps.WorkflowHandler != nil {
		workflows := app.Group("/api/v1/workflows", jwtMiddleware)
		deps.WorkflowHandler.Register(workflows)
	}

	if deps.ContactHandler != nil {
		contacts := app.Group("/api/v1/contacts", jwtMiddleware)
		deps.ContactHandler.Register(contacts)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}
