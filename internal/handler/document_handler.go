package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// DocumentHandler accepts supporting documents referenced by activities.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register wires document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	var userID *uint
	if id, ok := c.Locals("user_id").(uint); ok && id > 0 {
		userID = &id
	}

	result, err := h.service.Upload(c.UserContext(), file, userID)
	if err != nil {
		return respondError(c, h.logger, err, "upload failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document stored", result)
}
