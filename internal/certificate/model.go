package certificate

import "time"

// Certificate states. enviado_sii marks a certificate forwarded to the tax
// authority.
const (
	StatusPending   = "pendiente"
	StatusValidated = "validado"
	StatusError     = "error"
	StatusSentSII   = "enviado_sii"
)

// ValidStatus reports whether s is a known certificate state.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusValidated, StatusError, StatusSentSII:
		return true
	}
	return false
}

// Certificate is a stored tax certificate plus its owner's display fields.
type Certificate struct {
	ID         string
	UserID     string
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	Status     string
	UploadedAt time.Time

	// Joined from usuarios for listings.
	OwnerName  string
	OwnerEmail string
}

// Filters narrow a certificate listing. Zero values are ignored.
type Filters struct {
	UserID     string
	Status     string
	FechaDesde time.Time
	FechaHasta time.Time
}
