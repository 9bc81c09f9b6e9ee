package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// ActivityListHandler exposes list configuration endpoints.
type ActivityListHandler struct {
	service service.ActivityListService
	logger  zerolog.Logger
}

// NewActivityListHandler constructs the handler.
func NewActivityListHandler(service service.ActivityListService, logger zerolog.Logger) *ActivityListHandler {
	return &ActivityListHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_list_handler").Logger(),
	}
}

// Register attaches list routes. Writes are restricted to coordinators.
func (h *ActivityListHandler) Register(router fiber.Router) {
	coordinatorOnly := middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", middleware.WithAuth(h.create, coordinatorOnly))
	router.Put("/:id", middleware.WithAuth(h.update, coordinatorOnly))
	router.Delete("/:id", middleware.WithAuth(h.delete, coordinatorOnly))
}

func (h *ActivityListHandler) list(c *fiber.Ctx) error {
	lists, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity lists")
	}
	return utils.SendSuccess(c, "activity lists retrieved", lists)
}

func (h *ActivityListHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	list, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch activity list")
	}
	return utils.SendSuccess(c, "activity list retrieved", list)
}

func (h *ActivityListHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityListCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	list, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity list")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity list created", list)
}

func (h *ActivityListHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ActivityListUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	list, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity list")
	}
	return utils.SendSuccess(c, "activity list updated", list)
}

func (h *ActivityListHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete activity list")
	}
	return utils.SendSuccess(c, "activity list deleted", fiber.Map{"id": id})
}
