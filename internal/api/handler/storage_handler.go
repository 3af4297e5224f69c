package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/wizard"
	"campus-portal/backend/pkg/response"
	"campus-portal/backend/pkg/storage"
)

// StorageHandler serves stored objects at their public URLs.
type StorageHandler struct {
	store *storage.Store
}

// NewStorageHandler creates a StorageHandler.
func NewStorageHandler(store *storage.Store) *StorageHandler {
	return &StorageHandler{store: store}
}

// Serve GET /storage/:bucket/*name
func (h *StorageHandler) Serve(c *gin.Context) {
	bucket := h.store.Bucket(c.Param("bucket"))
	if bucket == nil {
		response.NotFound(c, 19006, "bucket not found")
		return
	}

	f, obj, err := bucket.Open(strings.TrimPrefix(c.Param("name"), "/"))
	if err != nil {
		if !handleStorageError(c, err) {
			internalError(c, err)
		}
		return
	}
	defer f.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		contentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		internalError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, obj.Name, obj.ModTime, f)
}

// handleStorageError maps upload and object errors, including those wrapped in a
// *wizard.SubmissionError. It returns false for anything else.
func handleStorageError(c *gin.Context, err error) bool {
	details := ""
	var se *wizard.SubmissionError
	if errors.As(err, &se) {
		details = se.Error()
	}

	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		response.ErrorWithDetails(c, http.StatusUnsupportedMediaType, 19001, "file type not allowed", details)
	case errors.Is(err, storage.ErrTooLarge):
		response.ErrorWithDetails(c, http.StatusRequestEntityTooLarge, 19002, "file exceeds the upload limit", details)
	case errors.Is(err, storage.ErrEmptyFile):
		response.ErrorWithDetails(c, http.StatusBadRequest, 19003, "file is empty", details)
	case errors.Is(err, storage.ErrObjectNotFound):
		response.NotFound(c, 19004, "file not found")
	case errors.Is(err, storage.ErrInvalidName):
		response.BadRequest(c, 19005, "invalid file name")
	default:
		return false
	}
	return true
}
