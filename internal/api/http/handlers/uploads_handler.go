package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/labdesk/helpdesk/internal/api/dto"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// MaxUploadBytes caps a single attachment.
const MaxUploadBytes = 10 << 20

// UploadsHandler stores image attachments on local disk.
type UploadsHandler struct {
	dir           string
	publicBaseURL string
}

// NewUploadsHandler serves files under dir. Returned URLs are rooted at
// publicBaseURL, or at the request's base URL when it is empty.
func NewUploadsHandler(dir, publicBaseURL string) *UploadsHandler {
	return &UploadsHandler{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload handles POST /uploads with a multipart "file" field.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("missing file", map[string]any{"file": "is required"})
	}
	if header.Size > MaxUploadBytes {
		return apperrors.NewValidationError("file too large", map[string]any{"file": "must be at most 10 MiB"})
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return apperrors.NewInternalError(err)
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return apperrors.NewValidationError("only image files can be attached", map[string]any{"file": "is not an image"})
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return apperrors.NewInternalError(err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	if err := c.SaveFile(header, filepath.Join(h.dir, name)); err != nil {
		return apperrors.NewInternalError(err)
	}

	base := h.publicBaseURL
	if base == "" {
		base = c.BaseURL()
	}
	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{URL: base + "/uploads/" + name})
}
