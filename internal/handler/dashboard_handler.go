package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// DashboardHandler serves the coordinator overview.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard route.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.summary)
}

func (h *DashboardHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", summary)
}
