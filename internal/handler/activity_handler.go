package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// ActivityHandler exposes activity record endpoints for coordinators and monitors.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// RegisterStudentRoutes attaches the nested /students/:id/activities routes.
func (h *ActivityHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:id/activities", h.list)
	router.Post("/:id/activities", h.create)
}

// Register attaches the /activities/:id routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	activities, err := h.service.ListByStudent(c.UserContext(), studentID, dto.ActivityFilter{
		Category:   c.Query("category"),
		DatePrefix: c.Query("date"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}
	return utils.SendSuccess(c, "activities retrieved", activities)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Create(c.UserContext(), actorFromContext(c), studentID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity")
	}
	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete activity")
	}
	return utils.SendSuccess(c, "activity deleted", fiber.Map{"id": id})
}

// ProgressHandler serves the recomputed progress view of a student.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches /students/:id/progress.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:id/progress", h.get)
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	progress, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to compute progress")
	}
	return utils.SendSuccess(c, "progress retrieved", progress)
}
