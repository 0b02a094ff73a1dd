package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/academia-api/internal/observability"
)

// LocalOperation carries the name of the operation a request executed.
const LocalOperation = "operation"

// Observability records Prometheus metrics and a structured completion log for
// every request, labelled by operation name when one was dispatched.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		operation := operationLabel(c)
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.OperationRequests().WithLabelValues(operation, statusLabel).Inc()
		observability.OperationLatency().WithLabelValues(operation).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.OperationErrors().WithLabelValues(operation, statusLabel).Inc()
		}

		requestLogger := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("operation", operation).
			Str("method", c.Method()).
			Int("status", status).
			Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
			Str("latency_bucket", latencyBucket(duration)).
			Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg("request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("request completed with client error")
		default:
			requestLogger.Info().Msg("request completed")
		}

		return err
	}
}

func operationLabel(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalOperation).(string); ok && value != "" {
		return value
	}
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}

func latencyBucket(duration time.Duration) string {
	switch {
	case duration <= 25*time.Millisecond:
		return "<=25ms"
	case duration <= 50*time.Millisecond:
		return "<=50ms"
	case duration <= 100*time.Millisecond:
		return "<=100ms"
	case duration <= 250*time.Millisecond:
		return "<=250ms"
	case duration <= 500*time.Millisecond:
		return "<=500ms"
	default:
		return ">500ms"
	}
}
