package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// ReportHandler serves per-list reports as JSON or CSV.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches /lists/:id/report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/:id/report", h.report)
	router.Get("/:id/report/export", h.export)
}

func (h *ReportHandler) report(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	report, err := h.service.Build(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build report")
	}
	return utils.SendSuccess(c, "report generated", report)
}

func (h *ReportHandler) export(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var buf bytes.Buffer
	name, err := h.service.ExportCSV(c.UserContext(), id, &buf)
	if err != nil {
		return respondError(c, h.logger, err, "failed to export report")
	}
	return sendCSV(c, name, buf.Bytes())
}
