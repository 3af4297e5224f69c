package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Handlers that hit the cap while reading push the
// error with c.Error and this middleware answers 413 for them.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			if IsBodyTooLarge(err.Err) {
				response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "request body too large")
				return
			}
		}
	}
}

// IsBodyTooLarge reports whether err came from reading past the BodyLimit cap.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
