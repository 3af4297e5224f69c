package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/api/middleware"
	"campus-portal/backend/internal/wizard"
	"campus-portal/backend/pkg/response"
)

// payloadField is the form part holding the JSON draft of a multipart submission.
const payloadField = "payload"

// submission is a decoded multipart (or plain JSON) submit request.
type submission struct {
	payload []byte
	form    *multipart.Form
}

// files returns the form files under field as wizard files, in the order the client sent them.
func (s submission) files(field string) []wizard.File {
	if s.form == nil {
		return nil
	}
	headers := s.form.File[field]
	files := make([]wizard.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, wizard.File{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files
}

// readSubmission accepts multipart/form-data with a "payload" JSON part, or a bare JSON body
// when no files are attached.
func readSubmission(c *gin.Context) (submission, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			bindFailed(c, err)
			return submission{}, false
		}
		return submission{payload: raw}, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "request body too large")
			return submission{}, false
		}
		response.ValidationFailed(c, map[string]string{"body": "malformed multipart form"})
		return submission{}, false
	}

	values := form.Value[payloadField]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		response.ValidationFailed(c, map[string]string{payloadField: "payload is required"})
		return submission{}, false
	}
	return submission{payload: []byte(values[0]), form: form}, true
}

// readFiles parses a multipart form that carries only files.
func readFiles(c *gin.Context) (submission, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "request body too large")
			return submission{}, false
		}
		response.ValidationFailed(c, map[string]string{"body": "expected a multipart form with files"})
		return submission{}, false
	}
	return submission{form: form}, true
}
