package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/config"
	"github.com/insieme-app/insieme-api/internal/docstore"
	"github.com/insieme-app/insieme-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Success     bool      `json:"success"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

type heartbeat struct {
	CheckedAt time.Time `json:"checkedAt"`
	Service   string    `json:"service"`
}

// HealthCheck reports application health and records a heartbeat document so
// the document store connectivity is exercised on every probe.
func HealthCheck(cfg config.Config, store docstore.Store, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "health_handler").Logger()

	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()

		if err := store.Set(c.UserContext(), "health", "heartbeat", heartbeat{
			CheckedAt: now,
			Service:   cfg.AppName,
		}); err != nil {
			log.Error().Err(err).Msg("heartbeat write failed")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "document store unavailable")
		}

		return utils.SendJSON(c, HealthResponse{
			Success:     true,
			Status:      "ok",
			Timestamp:   now,
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		})
	}
}
