package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/horas-api/internal/utils"
)

// RequireRole lets the request through only when the caller's role, as stored by
// JWTProtected, is one of roles. Comparison ignores case.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[roleFromLocals(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func roleFromLocals(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return normalizeRole(role)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
