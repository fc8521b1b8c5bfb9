package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/register", h.Register)

	r.Post("/mfa/verify", h.VerifyMFA)
	r.Post("/send-otp", h.SendOTP)
}
