package identity

import "time"

// Role names as stored in the roles table.
const (
	RoleAdmin    = "admin"
	RoleCorredor = "corredor"
	RoleAuditor  = "auditor"
)

// Account states.
const (
	StatusActive  = "activo"
	StatusPending = "pendiente"
	StatusBlocked = "bloqueado"
)

// User represents a profile row joined with its role.
type User struct {
	ID           string
	Email        string
	Name         string
	RoleID       int
	Role         string
	Status       string
	Active       bool
	MFAEnabled   bool
	PasswordHash []byte
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// Credentials carry a login request.
type Credentials struct {
	Email    string
	Password string
}
