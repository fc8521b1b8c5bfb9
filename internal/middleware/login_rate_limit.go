package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// LoginRateLimit bounds login attempts per email (falling back to client IP)
// using a Redis counter. Fails open when Redis is unavailable.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		key := strings.ToLower(strings.TrimSpace(req.Email))
		if key == "" {
			key = c.IP()
		}
		key = "rl:login:" + key

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "demasiados intentos de inicio de sesión, intenta más tarde")
		}
		return c.Next()
	}
}
