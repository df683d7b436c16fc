package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/reviewlens/reviewlens/internal/pkg/errcode"
	"github.com/reviewlens/reviewlens/internal/pkg/response"
	"github.com/reviewlens/reviewlens/internal/service"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	stats, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		handleError(c, err, errcode.ErrInternal)
		return
	}
	response.Success(c, stats)
}
