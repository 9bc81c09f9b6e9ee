package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/horas-api/internal/observability"
)

const apiPrefix = "/api/"

// Observability records request metrics, opens a server span for every API call and
// writes one structured log line per request. Non-API paths such as /metrics pass through.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()
	tracer := otel.Tracer("github.com/noah-isme/horas-api/internal/middleware")

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), apiPrefix) {
			return c.Next()
		}

		ctx, span := tracer.Start(c.UserContext(), c.Method()+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		// Error handlers have not run yet, so a returned fiber error carries the final status.
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		route := routeTemplate(c)
		method := c.Method()
		statusLabel := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		span.SetName(method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, statusLabel)
		}

		entry := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Dur("latency", duration)
		if userID, ok := c.Locals("user_id").(uint); ok {
			entry = entry.Uint("user_id", userID)
		}
		if role, ok := c.Locals("user_role").(string); ok {
			entry = entry.Str("role", role)
		}
		requestLogger := entry.Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Err(err).Msg("request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("request rejected")
		default:
			requestLogger.Info().Msg("request completed")
		}

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
		return route.Path
	}
	return c.Path()
}
