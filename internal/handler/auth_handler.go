package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

// AuthHandler issues tokens and reports the current account.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches /auth routes. limiter guards login and guard protects /me; either may be nil.
func (h *AuthHandler) Register(router fiber.Router, limiter, guard fiber.Handler) {
	router.Post("/login", chain(limiter, h.login)...)
	router.Get("/me", chain(guard, h.me)...)
}

func chain(middleware fiber.Handler, handler fiber.Handler) []fiber.Handler {
	if middleware == nil {
		return []fiber.Handler{handler}
	}
	return []fiber.Handler{middleware, handler}
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}
	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	user, err := h.service.Me(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load account")
	}
	return utils.SendSuccess(c, "account retrieved", user)
}
