package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elarabyomar/PFA-sub000/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a new UUID, echoes
// it in the response and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog logs every request through the logging package.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{"bytes", c.Writer.Size()}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		logging.HTTPRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path,
			c.ClientIP(), c.Writer.Status(), time.Since(start), args...)
	}
}
