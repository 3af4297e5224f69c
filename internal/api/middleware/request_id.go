package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestIDMaxLen bounds client supplied ids before they reach the logs.
const requestIDMaxLen = 64

// RequestID reuses X-Request-ID when the client sent a sane one and generates a UUID otherwise.
// The id is echoed in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

// GetRequestID returns the id RequestID assigned.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
