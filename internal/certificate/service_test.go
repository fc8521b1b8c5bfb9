package certificate

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/logging"
)

func newTestService(t *testing.T) (*Service, Repository, *DiskStore) {
	t.Helper()
	blobs, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	repo := NewMemoryRepository()
	return NewService(repo, blobs, logging.Discard()), repo, blobs
}

func corredor() Viewer {
	return Viewer{ID: uuid.New().String(), Role: identity.RoleCorredor}
}

func pdfInput(name string) UploadInput {
	return UploadInput{
		FileName: name,
		MimeType: "application/pdf",
		Size:     12,
		Data:     strings.NewReader("%PDF-1.4 ..."),
	}
}

func TestUploadAndDownload(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := corredor()

	cert, err := svc.Upload(ctx, owner, pdfInput("f29_junio.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if cert.Status != StatusPending {
		t.Fatalf("expected estado pendiente, got %s", cert.Status)
	}
	if cert.UserID != owner.ID {
		t.Fatalf("certificate not attributed to uploader")
	}

	got, rc, err := svc.Download(ctx, owner, cert.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if got.FileName != "f29_junio.pdf" || !strings.HasPrefix(string(body), "%PDF") {
		t.Fatalf("unexpected download %q / %q", got.FileName, body)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := UploadInput{
		FileName: "notas.txt",
		MimeType: "text/plain",
		Size:     3,
		Data:     strings.NewReader("hey"),
	}
	if _, err := svc.Upload(context.Background(), corredor(), input); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

type failingRepository struct {
	Repository
}

func (failingRepository) Create(context.Context, Certificate) error {
	return errors.New("db down")
}

func TestUploadCompensatesBlobOnInsertFailure(t *testing.T) {
	blobs, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	svc := NewService(failingRepository{NewMemoryRepository()}, blobs, logging.Discard())
	owner := corredor()

	if _, err := svc.Upload(context.Background(), owner, pdfInput("f29.pdf")); err == nil {
		t.Fatalf("expected upload failure")
	}

	// The compensating delete must have removed the stored file.
	entries, err := os.ReadDir(filepath.Join(blobs.root, owner.ID))
	if err == nil && len(entries) != 0 {
		t.Fatalf("expected no orphaned blobs, found %d", len(entries))
	}
}

func TestListScopesByViewer(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	first, second := corredor(), corredor()

	if _, err := svc.Upload(ctx, first, pdfInput("a.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := svc.Upload(ctx, second, pdfInput("b.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	own, err := svc.List(ctx, first, Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].UserID != first.ID {
		t.Fatalf("corredor should only see own certificates, got %d", len(own))
	}

	// A corredor cannot widen the scope by passing another user's filter.
	sneaky, err := svc.List(ctx, first, Filters{UserID: second.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sneaky) != 1 || sneaky[0].UserID != first.ID {
		t.Fatalf("filter override leaked foreign certificates")
	}

	admin := Viewer{ID: uuid.New().String(), Role: identity.RoleAdmin}
	all, err := svc.List(ctx, admin, Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see all certificates, got %d", len(all))
	}

	auditor := Viewer{ID: uuid.New().String(), Role: identity.RoleAuditor}
	if all, err = svc.List(ctx, auditor, Filters{}); err != nil || len(all) != 2 {
		t.Fatalf("auditor should see all certificates, got %d (%v)", len(all), err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	owner := corredor()

	first, err := svc.Upload(ctx, owner, pdfInput("a.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := svc.Upload(ctx, owner, pdfInput("b.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := repo.UpdateStatus(ctx, first.ID, StatusValidated); err != nil {
		t.Fatalf("update status: %v", err)
	}

	validated, err := svc.List(ctx, owner, Filters{Status: StatusValidated})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(validated) != 1 || validated[0].ID != first.ID {
		t.Fatalf("expected only the validated certificate")
	}
}

func TestDownloadForeignCertificateForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := corredor()

	cert, err := svc.Upload(ctx, owner, pdfInput("f29.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, _, err := svc.Download(ctx, corredor(), cert.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	auditor := Viewer{ID: uuid.New().String(), Role: identity.RoleAuditor}
	if _, rc, err := svc.Download(ctx, auditor, cert.ID); err != nil {
		t.Fatalf("auditor download: %v", err)
	} else {
		rc.Close()
	}
}

func TestDeletePermissions(t *testing.T) {
	svc, repo, blobs := newTestService(t)
	ctx := context.Background()
	owner := corredor()

	cert, err := svc.Upload(ctx, owner, pdfInput("f29.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	auditor := Viewer{ID: uuid.New().String(), Role: identity.RoleAuditor}
	if err := svc.Delete(ctx, auditor, cert.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("auditor delete should be forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, corredor(), cert.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign corredor delete should be forbidden, got %v", err)
	}

	if err := svc.Delete(ctx, owner, cert.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := repo.Get(ctx, cert.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected row gone, got %v", err)
	}
	if _, err := blobs.Open(ctx, cert.StorageKey); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected blob gone, got %v", err)
	}
}

func TestAdminDeletesAnyCertificate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cert, err := svc.Upload(ctx, corredor(), pdfInput("f29.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	admin := Viewer{ID: uuid.New().String(), Role: identity.RoleAdmin}
	if err := svc.Delete(ctx, admin, cert.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cert, err := svc.Upload(ctx, corredor(), pdfInput("f29.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, cert.ID, "aprobadisimo"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, cert.ID, StatusSentSII)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != StatusSentSII {
		t.Fatalf("expected estado enviado_sii, got %s", updated.Status)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	blobs, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "../escape.pdf", "/etc/passwd", "a/../../b.pdf"} {
		if err := blobs.Save(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}
