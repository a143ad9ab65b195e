package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// SessionHeader carries the admin session id.
const SessionHeader = "X-Session-Id"

// SessionMiddleware guards admin routes with the session flag.
type SessionMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewSessionMiddleware constructs a new SessionMiddleware.
func NewSessionMiddleware(authService *service.AuthService, rateLimiter *InvalidAuthRateLimiter) *SessionMiddleware {
	return &SessionMiddleware{
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

// Handle returns a Gin middleware function that requires a valid session.
// EventSource cannot set headers, so the id is also read from ?session=.
func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			sessionID = c.Query("session")
		}
		if sessionID == "" {
			m.handleAuthError(c, "UNAUTHORIZED", "Missing session")
			return
		}

		if err := m.authService.Authenticate(c.Request.Context(), sessionID); err != nil {
			if !errors.Is(err, utils.ErrInvalidSession) {
				log.Error().Err(err).Msg("Session check failed")
				utils.Error(c, 503, "SESSION_STORE_UNAVAILABLE", "Session store unavailable")
				c.Abort()
				return
			}
			m.handleAuthError(c, "INVALID_SESSION", "Invalid session")
			return
		}

		c.Set("session_id", sessionID)
		c.Next()
	}
}

func (m *SessionMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	ip := c.ClientIP()
	if !m.rateLimiter.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetSessionID returns the authenticated session id from context.
func GetSessionID(c *gin.Context) string {
	return c.GetString("session_id")
}
