package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/otp"
)

// Handler exposes the login, MFA and OTP relay endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type userPayload struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"nombre"`
	Role       string `json:"rol"`
	Status     string `json:"estado"`
	Active     bool   `json:"activo"`
	MFAEnabled bool   `json:"mfaHabilitado"`
}

func toUserPayload(u identity.User) userPayload {
	return userPayload{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Status:     u.Status,
		Active:     u.Active,
		MFAEnabled: u.MFAEnabled,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials. MFA-enabled users receive a challenge instead of
// a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "faltan campos requeridos: email, password")
	}

	result, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return loginError(err)
	}

	if result.RequiresMFA {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success":     true,
			"requiresMFA": true,
			"email":       result.User.Email,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":     true,
		"requiresMFA": false,
		"user":        toUserPayload(result.User),
		"token":       result.Token,
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyMFA consumes the pending code and returns the withheld session token.
func (h *Handler) VerifyMFA(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "faltan campos requeridos: email, code")
	}

	result, err := h.svc.VerifyMFA(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return loginError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    toUserPayload(result.User),
		"token":   result.Token,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
}

// Register creates a self-service account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"usuario": toUserPayload(user),
	})
}

type sendOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SendOTP stores and mails a caller-supplied code.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "faltan campos requeridos: email, otp")
	}

	if err := h.svc.SendOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return loginError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

// loginError maps domain failures onto HTTP statuses; the message itself is
// surfaced verbatim in the uniform error envelope.
func loginError(err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrInactive), errors.Is(err, identity.ErrProfileMissing):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, otp.ErrEmptyCode), errors.Is(err, otp.ErrInvalidCode):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, otp.ErrNotFound), errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrMismatch), errors.Is(err, otp.ErrTooManyAttempts):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
