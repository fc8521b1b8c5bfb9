package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	// ErrInactive indicates the account exists but was deactivated.
	ErrInactive = errors.New("cuenta desactivada")
	// ErrProfileMissing indicates the account was never provisioned with an
	// approved profile (self-registration with auto-provisioning disabled).
	ErrProfileMissing = errors.New("perfil no aprovisionado, contacta al administrador")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("el correo ya está registrado")
)

const minPasswordLen = 8

// Service manages user profiles and credential checks.
type Service struct {
	repo          Repository
	autoProvision bool
}

// NewService creates an identity service. autoProvision controls whether
// self-registered users receive a usable corredor profile immediately.
func NewService(repo Repository, autoProvision bool) *Service {
	return &Service{repo: repo, autoProvision: autoProvision}
}

// Authenticate verifies email/password and stamps the last access time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	if user.Status == StatusPending {
		return User{}, ErrProfileMissing
	}
	if !user.Active {
		return User{}, ErrInactive
	}

	// Best effort, a failed stamp must not block the login.
	_ = s.repo.UpdateLastLogin(ctx, user.ID, time.Now())

	return user, nil
}

// Register creates a self-service account. With auto-provisioning enabled the
// account gets an active corredor profile; otherwise it stays pending until an
// administrator approves it.
func (s *Service) Register(ctx context.Context, email, password, name string) (User, error) {
	if email == "" || password == "" {
		return User{}, errors.New("faltan campos requeridos: email, password")
	}
	if len(password) < minPasswordLen {
		return User{}, fmt.Errorf("la contraseña debe tener al menos %d caracteres", minPasswordLen)
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if name == "" {
		name = DefaultName(email)
	}

	roleID, err := s.repo.RoleID(ctx, RoleCorredor)
	if err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		RoleID:       roleID,
		Role:         RoleCorredor,
		Status:       StatusActive,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if !s.autoProvision {
		user.Status = StatusPending
		user.Active = false
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUserInput carries the admin user-creation payload.
type CreateUserInput struct {
	Email      string
	Password   string
	Name       string
	Role       string
	MFAEnabled bool
}

// CreateUser provisions a complete account on behalf of an administrator.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	if input.Email == "" || input.Password == "" || input.Name == "" || input.Role == "" {
		return User{}, errors.New("faltan campos requeridos: email, password, nombre, rol")
	}
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return User{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	roleID, err := s.repo.RoleID(ctx, input.Role)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return User{}, fmt.Errorf("rol %q no encontrado", input.Role)
		}
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Name:         input.Name,
		RoleID:       roleID,
		Role:         input.Role,
		Status:       StatusActive,
		Active:       true,
		MFAEnabled:   input.MFAEnabled,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListUsers returns every profile ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateUserInput carries partial profile updates; nil fields are left untouched.
type UpdateUserInput struct {
	Name       *string
	Role       *string
	Status     *string
	MFAEnabled *bool
}

// UpdateUser applies a partial update to a profile. The activo flag is derived
// from estado, matching the original admin API.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if input.Name != nil && *input.Name != "" {
		user.Name = *input.Name
	}
	if input.Role != nil && *input.Role != "" {
		roleID, err := s.repo.RoleID(ctx, *input.Role)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				return User{}, fmt.Errorf("rol %q no encontrado", *input.Role)
			}
			return User{}, err
		}
		user.RoleID = roleID
		user.Role = *input.Role
	}
	if input.Status != nil && *input.Status != "" {
		user.Status = *input.Status
		user.Active = *input.Status == StatusActive
	}
	if input.MFAEnabled != nil {
		user.MFAEnabled = *input.MFAEnabled
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes a profile.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ResetPassword replaces a user's password with an admin-chosen one.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("la contraseña debe tener al menos %d caracteres", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// DefaultName derives a display name from the email local part, title-casing
// each word ("juan.perez@x.cl" -> "Juan Perez").
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, local)

	words := strings.Fields(mapped)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
