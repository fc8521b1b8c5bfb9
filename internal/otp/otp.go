package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Verification failures. The messages are user-facing; handlers surface them
// verbatim in the error field.
var (
	ErrEmptyCode       = errors.New("código requerido")
	ErrInvalidCode     = errors.New("el código debe tener 6 dígitos")
	ErrNotFound        = errors.New("no se generó un código para este usuario")
	ErrExpired         = errors.New("código expirado")
	ErrMismatch        = errors.New("código incorrecto")
	ErrTooManyAttempts = errors.New("demasiados intentos fallidos, solicita un nuevo código")
)

const codeLen = 6

// Record is a pending one-time password for a single email. A new issuance
// for the same email overwrites the previous record.
type Record struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// GenerateCode returns a 6-digit numeric code drawn uniformly from
// 000000–999999 using crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidCode reports whether code is exactly six ASCII digits.
func ValidCode(code string) bool {
	if len(code) != codeLen {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
