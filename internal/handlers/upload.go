package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/campuslink-app/backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUploadSize caps image uploads at 5MB.
const maxUploadSize = 5 << 20

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// saveImageUpload validates and stores an uploaded image, returning the
// opaque blob reference. prefix namespaces the object (posts, profiles).
func saveImageUpload(c echo.Context, store storage.Storage, file *multipart.FileHeader, prefix string) (string, error) {
	if file.Size > maxUploadSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, "File too large. Maximum size is 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Only image files are allowed!")
	}

	src, err := file.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to read upload")
	}
	defer src.Close()

	path := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
	ref, err := store.Save(c.Request().Context(), path, src, contentType)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to store upload")
	}
	return ref, nil
}
