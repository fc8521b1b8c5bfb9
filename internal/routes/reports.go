package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/middleware"
	"github.com/certitax/certitax/internal/report"
)

// RegisterReportRoutes wires the dashboard aggregates for admin and auditor.
func RegisterReportRoutes(r fiber.Router, h *report.Handler) {
	group := r.Group("/reports", middleware.RequireRole(identity.RoleAdmin, identity.RoleAuditor))
	group.Get("/summary", h.Summary)
}
