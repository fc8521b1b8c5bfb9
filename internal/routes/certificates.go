package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/certificate"
	"github.com/certitax/certitax/internal/middleware"
)

// RegisterCertificateRoutes wires the certificate endpoints. Must be mounted
// behind Authenticate; row-level scoping happens in the service.
func RegisterCertificateRoutes(r fiber.Router, h *certificate.Handler) {
	group := r.Group("/certificates")
	group.Post("/", h.Upload)
	group.Get("/", h.List)
	group.Get("/:id/download", h.Download)
	group.Delete("/:id", h.Delete)
	group.Put("/:id/status", middleware.RequireAdmin(), h.UpdateStatus)
}
