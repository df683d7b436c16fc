package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/reviewlens/reviewlens/internal/pkg/response"
)

type SystemHandler struct {
	version string
}

func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

func (h *SystemHandler) Root(c *gin.Context) {
	response.Success(c, gin.H{
		"message": "customer reviews management API",
		"version": h.version,
		"health":  "/api/v1/health",
	})
}

func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "backend is running",
	})
}
