package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/academia-api/internal/config"
	"github.com/noah-isme/academia-api/internal/handler"
	"github.com/noah-isme/academia-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OperationHandler   *handler.OperationHandler
	IdentityMiddleware fiber.Handler
	RateLimiter        fiber.Handler
	HealthChecks       map[string]handler.Pinger
	ExposeMetrics      bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.ExposeMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	if deps.OperationHandler == nil {
		return
	}

	deps.OperationHandler.Register(api, passThrough(deps.IdentityMiddleware), passThrough(deps.RateLimiter))
}

func passThrough(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
