package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, fmt.Errorf("invalid %s", key)
	}
	id := uint(parsed)
	return &id, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
	if name, ok := c.Locals("user_name").(string); ok {
		actor.Name = name
	}
	return actor
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// fieldErrors flattens validator errors into a field → rule map for the response details.
func fieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}

var notFoundErrors = []error{
	service.ErrListNotFound,
	service.ErrStudentNotFound,
	service.ErrActivityNotFound,
	service.ErrUserNotFound,
}

var conflictErrors = []error{
	service.ErrDuplicateCPF,
	service.ErrDuplicateUser,
	service.ErrListHasStudents,
}

var badRequestErrors = []error{
	service.ErrFutureDate,
	service.ErrInvalidCategory,
	service.ErrInvalidImport,
	service.ErrInvalidStatusFilter,
	service.ErrUploadMissing,
	service.ErrUploadTypeNotAllowed,
	service.ErrUploadScanFailed,
	hours.ErrInvalidConfig,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps service errors onto HTTP statuses; anything unrecognised is logged
// and reported as a 500 with the given fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fieldErrors(err))
	case matchesAny(err, notFoundErrors):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case matchesAny(err, conflictErrors):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case matchesAny(err, badRequestErrors):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
