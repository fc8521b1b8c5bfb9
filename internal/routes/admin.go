package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/middleware"
)

// RegisterAdminRoutes wires user management behind the admin gate.
func RegisterAdminRoutes(r fiber.Router, h *identity.Handler) {
	group := r.Group("/admin/users", middleware.RequireAdmin())
	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
	group.Post("/:id/reset-password", h.ResetPassword)
}
