package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		role   interface{}
		status int
	}{
		{name: "coordinator", role: "coordinator", status: fiber.StatusOK},
		{name: "mixed case", role: " Coordinator ", status: fiber.StatusOK},
		{name: "monitor", role: "monitor", status: fiber.StatusForbidden},
		{name: "missing", role: nil, status: fiber.StatusForbidden},
		{name: "wrong type", role: 42, status: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != nil {
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Use(RequireRole("coordinator"))
			app.Get("/lists", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/lists", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
