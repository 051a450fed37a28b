// Package router wires the gateway's HTTP routes. Role policy is declared
// here, once, so every view of the same resource goes through the same gate.
package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eduassign/eduassign-gateway/internal/config"
	"github.com/eduassign/eduassign-gateway/internal/handler"
	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	FeedbackHandler   *handler.FeedbackHandler
	DocumentHandler   *handler.DocumentHandler
	SessionResolver   middleware.SessionResolver
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SessionResolver != nil {
		api.Use(middleware.Authenticate(deps.SessionResolver))
	}

	anyRole := middleware.RequireRole(models.RoleStudent, models.RoleTeacher)
	teacherOnly := middleware.RequireRole(models.RoleTeacher)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignments", anyRole), teacherOnly)
	}

	submissions := api.Group("/submissions", anyRole)
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(submissions, studentOnly, teacherOnly)
		deps.SubmissionHandler.RegisterStudentRoutes(api.Group("/students", anyRole))
	}
	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.Register(submissions, teacherOnly)
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(api.Group("/documents", anyRole))
	}
}
