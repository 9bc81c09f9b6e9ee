package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/utils"
)

var errMissingSubject = errors.New("token subject missing")

// JWTProtected validates HS256 bearer tokens and exposes the caller as
// user_id, user_role and user_name locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing or malformed")
		}

		var claims dto.AccessClaims
		if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := subjectID(claims.Subject)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals("user_id", userID)
		if role := strings.ToLower(strings.TrimSpace(claims.Role)); role != "" {
			c.Locals("user_role", role)
		}
		if name := strings.TrimSpace(claims.Name); name != "" {
			c.Locals("user_name", name)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func subjectID(subject string) (uint, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, errMissingSubject
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(subject), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errMissingSubject
	}
	return uint(parsed), nil
}
