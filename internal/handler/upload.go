package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/service"
)

// UploadHandler serves /uploads for the signed-in user.
type UploadHandler struct {
	Uploads  *service.UploadService
	MaxBytes int64 // largest accepted workbook
	Logger   *zap.Logger
}

func NewUploadHandler(uploads *service.UploadService, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{Uploads: uploads, MaxBytes: maxBytes, Logger: logger}
}

// Create parses the multipart field "file" and stores it.
func (h *UploadHandler) Create(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)

	var (
		name string
		file io.Reader // stays nil when the field is missing
	)
	if fh, err := c.FormFile("file"); err == nil {
		if h.MaxBytes > 0 && fh.Size > h.MaxBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"message": "File too large"})
		}
		f, err := fh.Open()
		if err != nil {
			return respondError(c, h.Logger, err, "Failed to upload and parse file")
		}
		defer f.Close()
		name, file = fh.Filename, f
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	up, err := h.Uploads.Upload(ctx, me, name, file)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to upload and parse file")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "File uploaded and parsed successfully", "uploadId": up.ID})
}

// List returns the caller's uploads, newest first.
func (h *UploadHandler) List(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	ups, err := h.Uploads.List(ctx, me)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch upload history")
	}
	return c.JSON(http.StatusOK, ups)
}

// Get returns one upload with its rows.
func (h *UploadHandler) Get(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Upload not found"})
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	up, err := h.Uploads.Get(ctx, me, id)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch upload")
	}
	return c.JSON(http.StatusOK, up)
}

// Delete removes one of the caller's uploads.
func (h *UploadHandler) Delete(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Upload not found"})
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Uploads.Delete(ctx, me, id); err != nil {
		return respondError(c, h.Logger, err, "Failed to delete upload")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Upload deleted successfully"})
}
