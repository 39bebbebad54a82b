package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/utils"
)

// maxUploadBytes caps a single image upload at 512 KB.
const maxUploadBytes = 512 * 1024

// allowedImageTypes lists the accepted Content-Type values for uploads.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler stores uploaded images on local disk and hands back the
// public path they are served from.
type UploadHandler struct {
	Dir string // destination directory, created on demand
}

func NewUploadHandler(dir string) *UploadHandler { return &UploadHandler{Dir: dir} }

// Image accepts a multipart "image" part, validates its declared type and
// size, and writes it under a ULID filename so uploads never collide.
func (h *UploadHandler) Image(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return apperr.New(apperr.KindInvariant, "image file is required")
	}
	if fh.Size > maxUploadBytes {
		return apperr.New(apperr.KindInvariant, "image exceeds the 512KB size limit")
	}
	ext, ok := allowedImageTypes[strings.ToLower(fh.Header.Get("Content-Type"))]
	if !ok {
		return apperr.New(apperr.KindInvariant, "unsupported image type")
	}

	src, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to read upload", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to prepare upload directory", err)
	}

	name := utils.NewID() + ext
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to store upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to store upload", err)
	}

	return respond(c, http.StatusCreated, "image uploaded", map[string]string{
		"fileLocation": "/uploads/" + name,
	})
}
