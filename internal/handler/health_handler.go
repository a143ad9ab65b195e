package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

var startTime = time.Now()

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	products service.StateSource
	driver   string
	redis    Pinger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil.
func NewHealthHandler(products service.StateSource, driver string, redis Pinger) *HealthHandler {
	return &HealthHandler{products: products, driver: driver, redis: redis}
}

// GetHealth responds with service, product store and Redis status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	st := h.products.State()

	redisStatus := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "disconnected"
		}
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"products": gin.H{
			"driver": h.driver,
			"status": st.Status(),
			"count":  len(st.Products),
			"error":  st.Error,
		},
		"redis": redisStatus,
	})
}
