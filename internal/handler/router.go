package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	System    *SystemHandler
	Reviews   *ReviewHandler
	Analytics *AnalyticsHandler
	// Metrics serves the Prometheus exposition when set.
	Metrics http.Handler
	// ReplyLimit throttles reply suggestions when set.
	ReplyLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.System.Root)
	api.GET("/health", deps.System.Health)

	api.POST("/ingest", deps.Reviews.Ingest)
	api.GET("/reviews", deps.Reviews.List)
	api.GET("/reviews/:id", deps.Reviews.Get)
	suggest := []gin.HandlerFunc{deps.Reviews.SuggestReply}
	if deps.ReplyLimit != nil {
		suggest = append([]gin.HandlerFunc{deps.ReplyLimit}, suggest...)
	}
	api.POST("/reviews/:id/suggest-reply", suggest...)
	api.GET("/search", deps.Reviews.Search)
	api.GET("/search/stats", deps.Reviews.SearchStats)
	api.GET("/locations", deps.Reviews.Locations)
	api.GET("/analytics", deps.Analytics.Summary)

	if deps.Metrics != nil {
		api.GET("/metrics", gin.WrapH(deps.Metrics))
	}
}
