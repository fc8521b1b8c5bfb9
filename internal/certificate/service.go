package certificate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/certitax/certitax/internal/identity"
)

const pdfMime = "application/pdf"

var (
	// ErrNotPDF rejects non-PDF uploads.
	ErrNotPDF = errors.New("solo se permiten archivos PDF")
	// ErrForbidden indicates the viewer may not act on the certificate.
	ErrForbidden = errors.New("no tienes permisos para realizar esta acción")
	// ErrInvalidStatus rejects unknown estado values.
	ErrInvalidStatus = errors.New("estado inválido")
)

// Viewer identifies the authenticated caller for scoping decisions.
type Viewer struct {
	ID   string
	Role string
}

// SeesAll reports whether the viewer may read every certificate.
func (v Viewer) SeesAll() bool {
	return v.Role == identity.RoleAdmin || v.Role == identity.RoleAuditor
}

// Service owns certificate upload, listing and lifecycle.
type Service struct {
	repo   Repository
	blobs  BlobStore
	logger *slog.Logger
}

// NewService builds a certificate service.
func NewService(repo Repository, blobs BlobStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// UploadInput carries one file of a bulk upload.
type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
	Data     io.Reader
}

// Upload stores the file and registers its metadata. When the metadata insert
// fails the stored blob is removed best-effort so no orphan is left behind.
func (s *Service) Upload(ctx context.Context, viewer Viewer, input UploadInput) (Certificate, error) {
	mime := input.MimeType
	if mime == "" && strings.HasSuffix(strings.ToLower(input.FileName), ".pdf") {
		mime = pdfMime
	}
	if mime != pdfMime {
		return Certificate{}, ErrNotPDF
	}

	key := fmt.Sprintf("%s/%d-%s.pdf", viewer.ID, time.Now().UnixMilli(), uuid.NewString()[:8])

	if err := s.blobs.Save(ctx, key, input.Data); err != nil {
		return Certificate{}, fmt.Errorf("error al subir archivo: %w", err)
	}

	cert := Certificate{
		ID:         uuid.New().String(),
		UserID:     viewer.ID,
		FileName:   input.FileName,
		StorageKey: key,
		MimeType:   mime,
		SizeBytes:  input.Size,
		Status:     StatusPending,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned blob after failed insert", "key", key, "error", delErr)
		}
		return Certificate{}, fmt.Errorf("error registrando certificado: %w", err)
	}

	s.logger.Info("certificate uploaded", "certificate_id", cert.ID, "user_id", viewer.ID, "size", cert.SizeBytes)
	return cert, nil
}

// List returns certificates visible to the viewer. Corredores only see their
// own rows; admin and auditor see everything.
func (s *Service) List(ctx context.Context, viewer Viewer, f Filters) ([]Certificate, error) {
	if !viewer.SeesAll() {
		f.UserID = viewer.ID
	}
	return s.repo.List(ctx, f)
}

// Download opens the stored file after an ownership check.
func (s *Service) Download(ctx context.Context, viewer Viewer, id string) (Certificate, io.ReadCloser, error) {
	cert, err := s.repo.Get(ctx, id)
	if err != nil {
		return Certificate{}, nil, err
	}
	if !viewer.SeesAll() && cert.UserID != viewer.ID {
		return Certificate{}, nil, ErrForbidden
	}
	rc, err := s.blobs.Open(ctx, cert.StorageKey)
	if err != nil {
		return Certificate{}, nil, err
	}
	return cert, rc, nil
}

// Delete removes the blob and then the metadata row. Auditors are read-only;
// corredores may only delete their own certificates.
func (s *Service) Delete(ctx context.Context, viewer Viewer, id string) error {
	cert, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if viewer.Role == identity.RoleAuditor {
		return ErrForbidden
	}
	if viewer.Role != identity.RoleAdmin && cert.UserID != viewer.ID {
		return ErrForbidden
	}

	if err := s.blobs.Delete(ctx, cert.StorageKey); err != nil {
		return fmt.Errorf("error eliminando archivo: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// UpdateStatus transitions a certificate to a new estado.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Certificate, error) {
	if !ValidStatus(status) {
		return Certificate{}, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return Certificate{}, err
	}
	return s.repo.Get(ctx, id)
}
