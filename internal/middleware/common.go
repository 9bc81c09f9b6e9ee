package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins is a comma separated CORS allow list. Empty means any origin.
	AllowOrigins string
	// AccessLog prints a plain access line per request, useful while developing.
	AccessLog bool
}

// Register attaches the middlewares shared by every route: panic recovery, correlation
// IDs, metrics and request logging, and CORS.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.Nop()
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.AccessLog}))
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${respHeader:" + HeaderCorrelationID + "}\n",
			Output: os.Stdout,
		}))
	}

	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + HeaderCorrelationID,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, " + HeaderCorrelationID,
	}))
}
