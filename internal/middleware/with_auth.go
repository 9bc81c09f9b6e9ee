package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny         = "any"
	AuthRoleStaff       = "staff"
	AuthRoleCoordinator = models.RoleCoordinator
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with basic authentication/authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRole(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser
	if !requireUser && role != AuthRoleAny {
		requireUser = true
	}

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if requireUser && userID == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := roleFromLocals(c)
		switch role {
		case AuthRoleStaff:
			if currentRole != models.RoleCoordinator && currentRole != models.RoleMonitor {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if currentRole != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}
