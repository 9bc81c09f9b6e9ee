package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// AuditHandler exposes the audit trail to coordinators.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the audit route.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.AuditListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if actorID != nil {
		req.ActorID = *actorID
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list audit entries")
	}
	return utils.OK(c, response.Items, "audit entries retrieved", response.Pagination)
}
