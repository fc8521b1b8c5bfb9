package certificate

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/certitax/certitax/internal/middleware"
)

// Handler exposes the certificate endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the certificate HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func viewerFrom(c *fiber.Ctx) Viewer {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	rol, _ := c.Locals(middleware.LocalUserRole).(string)
	return Viewer{ID: id, Role: rol}
}

type certificatePayload struct {
	ID         string    `json:"id"`
	UserID     string    `json:"usuarioId"`
	FileName   string    `json:"nombreArchivo"`
	MimeType   string    `json:"tipoArchivo"`
	SizeBytes  int64     `json:"tamanoBytes"`
	Status     string    `json:"estado"`
	UploadedAt time.Time `json:"fechaCarga"`
	OwnerName  string    `json:"nombreUsuario,omitempty"`
	OwnerEmail string    `json:"emailUsuario,omitempty"`
}

func toCertificatePayload(cert Certificate) certificatePayload {
	return certificatePayload{
		ID:         cert.ID,
		UserID:     cert.UserID,
		FileName:   cert.FileName,
		MimeType:   cert.MimeType,
		SizeBytes:  cert.SizeBytes,
		Status:     cert.Status,
		UploadedAt: cert.UploadedAt,
		OwnerName:  cert.OwnerName,
		OwnerEmail: cert.OwnerEmail,
	}
}

type uploadResult struct {
	FileName    string              `json:"nombreArchivo"`
	OK          bool                `json:"ok"`
	Error       string              `json:"error,omitempty"`
	Certificate *certificatePayload `json:"certificado,omitempty"`
}

// Upload accepts a multipart form with one or more files under the "files"
// field and reports a per-file result. A partial failure does not fail the
// whole request.
func (h *Handler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "se esperaba un formulario multipart")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(http.StatusBadRequest, "no se recibieron archivos")
	}

	viewer := viewerFrom(c)
	results := make([]uploadResult, 0, len(files))
	failed := 0
	for _, fh := range files {
		cert, err := h.uploadOne(c, viewer, fh)
		if err != nil {
			failed++
			results = append(results, uploadResult{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		payload := toCertificatePayload(cert)
		results = append(results, uploadResult{FileName: fh.Filename, OK: true, Certificate: &payload})
	}

	status := http.StatusCreated
	if failed == len(files) {
		status = http.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"success":    failed < len(files),
		"resultados": results,
	})
}

func (h *Handler) uploadOne(c *fiber.Ctx, viewer Viewer, fh *multipart.FileHeader) (Certificate, error) {
	f, err := fh.Open()
	if err != nil {
		return Certificate{}, fmt.Errorf("error leyendo el archivo: %w", err)
	}
	defer f.Close()

	return h.svc.Upload(c.UserContext(), viewer, UploadInput{
		FileName: fh.Filename,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		Size:     fh.Size,
		Data:     f,
	})
}

// List returns certificates visible to the caller, optionally filtered by
// estado and fecha_desde/fecha_hasta (YYYY-MM-DD).
func (h *Handler) List(c *fiber.Ctx) error {
	var f Filters
	f.Status = c.Query("estado")
	if f.Status != "" && !ValidStatus(f.Status) {
		return fiber.NewError(http.StatusBadRequest, ErrInvalidStatus.Error())
	}
	var err error
	if f.FechaDesde, err = parseDateQuery(c.Query("fecha_desde"), false); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if f.FechaHasta, err = parseDateQuery(c.Query("fecha_hasta"), true); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	certs, err := h.svc.List(c.UserContext(), viewerFrom(c), f)
	if err != nil {
		return certificateError(err)
	}

	payloads := make([]certificatePayload, 0, len(certs))
	for _, cert := range certs {
		payloads = append(payloads, toCertificatePayload(cert))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"certificados": payloads,
	})
}

// Download streams the stored PDF back to the caller.
func (h *Handler) Download(c *fiber.Ctx) error {
	cert, rc, err := h.svc.Download(c.UserContext(), viewerFrom(c), c.Params("id"))
	if err != nil {
		return certificateError(err)
	}

	c.Set(fiber.HeaderContentType, cert.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cert.FileName))
	return c.SendStream(rc, int(cert.SizeBytes))
}

// Delete removes the certificate and its stored file.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), viewerFrom(c), c.Params("id")); err != nil {
		return certificateError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

type updateStatusRequest struct {
	Status string `json:"estado"`
}

// UpdateStatus transitions the certificate's estado. Admin only; enforced at
// the route level.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Status == "" {
		return fiber.NewError(http.StatusBadRequest, "faltan campos requeridos: estado")
	}

	cert, err := h.svc.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return certificateError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":     true,
		"certificado": toCertificatePayload(cert),
	})
}

// parseDateQuery parses a YYYY-MM-DD query value. endOfDay pushes the bound to
// 23:59:59 so fecha_hasta is inclusive.
func parseDateQuery(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q, se esperaba YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.UTC(), nil
}

func certificateError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBlobNotFound):
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotPDF), errors.Is(err, ErrInvalidStatus):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
