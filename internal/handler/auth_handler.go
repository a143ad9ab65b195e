package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/middleware"
	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// AuthHandler handles admin login and logout.
type AuthHandler struct {
	authService *service.AuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rateLimiter}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ip := c.ClientIP()
	if h.rateLimiter.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		return
	}

	sessionID, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredential) {
			h.rateLimiter.Allow(ip)
			utils.Error(c, 401, "INVALID_CREDENTIALS", "Credenciales inválidas")
			return
		}
		respondError(c, err, "Error en el inicio de sesión")
		return
	}

	h.rateLimiter.Reset(ip)
	utils.Success(c, 200, "Login exitoso", gin.H{
		"sessionId": sessionID,
	})
}

// Logout handles POST /v1/admin/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondError(c, err, "Failed to log out")
		return
	}
	utils.Success(c, 200, "Logged out", nil)
}
