package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/config"
	"github.com/insieme-app/insieme-api/internal/docstore"
	"github.com/insieme-app/insieme-api/internal/handler"
	"github.com/insieme-app/insieme-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GenerateHandler  *handler.GenerateHandler
	GradingHandler   *handler.GradingHandler
	WorksheetHandler *handler.WorksheetHandler
	Store            docstore.Store
	Logger           zerolog.Logger
}

// Register wires the HTTP routes into the fiber application. The generation
// and grading endpoints sit at the root so existing clients keep working.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Store, deps.Logger))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.GenerateHandler != nil {
		deps.GenerateHandler.Register(app)
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(app)
	}

	if deps.WorksheetHandler != nil {
		deps.WorksheetHandler.Register(app)
	}
}
