package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
)

// OriginCheck checkout linki üreten endpointleri allowlist dışındaki
// sitelerden gelen isteklere kapatır. Origin/Referer başlığı hiç yoksa
// istek geçer; Stripe redirect'leri ve doğrudan navigasyon başlık taşımaz.
func OriginCheck(allowedOrigins []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			origin = c.Get("Referer")
		}
		if origin == "" {
			return c.Next()
		}

		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Origin not allowed"))
	}
}
