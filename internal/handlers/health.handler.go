package handlers

import (
	"form95/internal/app"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports process health and whether the fill tool can run.
// A missing tool degrades the service but drafts still save.
func HealthHandler(router fiber.Router, app app.App) {
	log := newHandler(app, router, "health_handler").log.Function("health")

	router.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":      "ok",
			"environment": app.Config.Environment,
			"documents":   "ok",
		}

		if err := app.Filler.Ready(); err != nil {
			log.Warn("document tool not ready", "error", err)
			status["status"] = "degraded"
			status["documents"] = err.Error()
		}

		if err := app.Database.Ping(c.UserContext()); err != nil {
			log.Er("database ping failed", err)
			status["status"] = "unavailable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}

		return c.JSON(status)
	})
}
