package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/auth"
	"github.com/certitax/certitax/internal/config"
	"github.com/certitax/certitax/internal/identity"
)

// Locals keys populated by Authenticate.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_rol"
	LocalUserEmail = "user_email"
)

// Authenticate validates the bearer token and loads the caller's profile.
// The role is re-read from the database on every request rather than trusted
// from the token, so a role change or deactivation applies immediately.
func Authenticate(cfg config.Config, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "no autorizado")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := auth.ParseToken(tokenStr, cfg.JWTSecret)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token inválido")
		}

		user, err := repo.FindByID(c.UserContext(), claims.Subject)
		if err != nil || !user.Active {
			return fiber.NewError(http.StatusUnauthorized, "token inválido")
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUserRole, user.Role)
		c.Locals(LocalUserEmail, user.Email)
		return c.Next()
	}
}

// RequireAdmin rejects authenticated callers whose freshly loaded role is not admin.
func RequireAdmin() fiber.Handler {
	return RequireRole(identity.RoleAdmin)
}

// RequireRole permits only the listed roles. Must run after Authenticate.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rol, _ := c.Locals(LocalUserRole).(string)
		for _, allowed := range roles {
			if rol == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "requiere permisos de administrador")
	}
}
