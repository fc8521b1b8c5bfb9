package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin user-management endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the identity HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type userPayload struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"nombre"`
	Role       string     `json:"rol"`
	Status     string     `json:"estado"`
	Active     bool       `json:"activo"`
	MFAEnabled bool       `json:"mfaHabilitado"`
	LastLogin  *time.Time `json:"ultimoAcceso,omitempty"`
	CreatedAt  time.Time  `json:"fechaCreacion"`
}

func toUserPayload(u User) userPayload {
	return userPayload{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Status:     u.Status,
		Active:     u.Active,
		MFAEnabled: u.MFAEnabled,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
}

type createUserRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"nombre"`
	Role       string `json:"rol"`
	MFAEnabled bool   `json:"mfaHabilitado"`
}

// Create provisions a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.CreateUser(c.UserContext(), CreateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		MFAEnabled: req.MFAEnabled,
	})
	if err != nil {
		return userError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"usuario": toUserPayload(user),
	})
}

// List returns every profile ordered by name.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return userError(err)
	}
	payloads := make([]userPayload, 0, len(users))
	for _, u := range users {
		payloads = append(payloads, toUserPayload(u))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":  true,
		"usuarios": payloads,
	})
}

type updateUserRequest struct {
	Name       *string `json:"nombre"`
	Role       *string `json:"rol"`
	Status     *string `json:"estado"`
	MFAEnabled *bool   `json:"mfaHabilitado"`
}

// Update applies a partial profile update.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.UpdateUser(c.UserContext(), c.Params("id"), UpdateUserInput{
		Name:       req.Name,
		Role:       req.Role,
		Status:     req.Status,
		MFAEnabled: req.MFAEnabled,
	})
	if err != nil {
		return userError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"usuario": toUserPayload(user),
	})
}

// Delete removes a profile.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return userError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets an admin-chosen password for the user.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "faltan campos requeridos: password")
	}

	if err := h.svc.ResetPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		return userError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

func userError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrRoleNotFound):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
