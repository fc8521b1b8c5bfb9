package report

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the report HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Summary returns the dashboard aggregates.
func (h *Handler) Summary(c *fiber.Ctx) error {
	summary, err := h.svc.Summary(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"resumen": summary,
	})
}
