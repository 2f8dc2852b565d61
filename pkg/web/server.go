package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// App mounts the handlers on a new fiber app.
func App(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Autoflow API")
	})

	conversations := app.Group("/agents/:agentId/users/:userId")
	conversations.Post("/messages", handlers.PostMessage)
	conversations.Delete("/memory", handlers.DeleteMemory)

	app.Get("/workflows/:id", handlers.GetWorkflow)
	app.Get("/node-specs", handlers.GetNodeSpecs)

	schedules := app.Group("/schedules")
	schedules.Get("/", handlers.GetSchedules)
	schedules.Post("/:id/run", handlers.RunSchedule)
	schedules.Delete("/:id", handlers.DeleteSchedule)

	app.Get("/health", handlers.HealthCheck)

	return app
}
