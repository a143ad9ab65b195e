package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// AnalyticsHandler exposes storefront traffic to admins.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetPageviews handles GET /v1/admin/analytics/pageviews
func (h *AnalyticsHandler) GetPageviews(c *gin.Context) {
	utils.Success(c, 200, "Pageviews retrieved", h.analyticsService.Pageviews(c.Request.Context()))
}
