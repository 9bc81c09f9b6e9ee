package handler

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

const csvContentType = "text/csv; charset=utf-8"

// StudentHandler exposes student registry endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	coordinatorOnly := middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}

	router.Get("/import/template", h.template)
	router.Post("/import", middleware.WithAuth(h.importCSV, coordinatorOnly))
	router.Get("/export", h.export)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", middleware.WithAuth(h.create, coordinatorOnly))
	router.Put("/:id", middleware.WithAuth(h.update, coordinatorOnly))
	router.Delete("/:id", middleware.WithAuth(h.delete, coordinatorOnly))
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	listID, err := parseQueryUint(c, "list_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.List(c.UserContext(), dto.StudentListRequest{
		Page:     page,
		PageSize: pageSize,
		ListID:   listID,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}

	return utils.OK(c, response.Items, "students retrieved", response.Pagination)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update student")
	}
	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete student")
	}
	return utils.SendSuccess(c, "student deleted", fiber.Map{"id": id})
}

func (h *StudentHandler) importCSV(c *fiber.Ctx) error {
	listID, err := parseQueryUint(c, "list_id")
	if err != nil || listID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "list_id is required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	handle, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer handle.Close()

	result, err := h.service.Import(c.UserContext(), actorFromContext(c), *listID, handle)
	if err != nil {
		return respondError(c, h.logger, err, "failed to import students")
	}
	return utils.SendSuccess(c, "students imported", result)
}

func (h *StudentHandler) template(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.Template(&buf); err != nil {
		return respondError(c, h.logger, err, "failed to build template")
	}
	return sendCSV(c, "modelo_importacao_estudantes.csv", buf.Bytes())
}

func (h *StudentHandler) export(c *fiber.Ctx) error {
	listID, err := parseQueryUint(c, "list_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var buf bytes.Buffer
	name, err := h.service.Export(c.UserContext(), listID, &buf)
	if err != nil {
		return respondError(c, h.logger, err, "failed to export students")
	}
	return sendCSV(c, name, buf.Bytes())
}

func sendCSV(c *fiber.Ctx, fileName string, payload []byte) error {
	c.Set(fiber.HeaderContentType, csvContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Status(fiber.StatusOK).Send(payload)
}
