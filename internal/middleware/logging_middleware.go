package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/utils"
)

const maxRequestIDLen = 64

// LoggingMiddleware tags every request with an id, echoed in the
// X-Request-Id header and the response envelope, and logs it once done.
// An id sent by the client is kept when it is short enough.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(utils.RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = utils.NewRequestID()
		}
		c.Set(utils.RequestIDKey, requestID)
		c.Header(utils.RequestIDHeader, requestID)

		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Bool("admin", GetSessionID(c) != "").
			Msg("HTTP Request")
	}
}
