package routes

import (
	"net/http"
	"time"

	"socialfeed/handlers"
	"socialfeed/middleware"
	"socialfeed/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterFeedRoutes registers feed read and seen-tracking endpoints.
func RegisterFeedRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/feed")
	{
		api.GET("/trending", hb.GetTrendingFeedHandler)

		viewer := api.Group("")
		viewer.Use(middleware.ViewerMiddleware())
		viewer.GET("/for-you", hb.GetForYouFeedHandler)
		viewer.GET("/cached", hb.GetCachedFeedHandler)
		viewer.POST("/seen", hb.MarkSeenHandler)
		viewer.GET("/seen/:postId", hb.HasSeenHandler)
	}
}

// RegisterPostRoutes registers the fan-out triggers.
func RegisterPostRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/posts")
	{
		api.POST("/:postId/published", hb.PublishPostHandler)
		api.DELETE("/:postId", hb.RetractPostHandler)
	}
}

// RegisterActivityRoute exposes the platform activity snapshot.
func RegisterActivityRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/activity", hb.GetActivityHandler)
}

// RegisterHealthRoute registers a health-check endpoint backed by the health monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterMetricsRoute serves Prometheus metrics.
func RegisterMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.ViewerHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterFeedRoutes(r, hb)
	RegisterPostRoutes(r, hb)
	RegisterActivityRoute(r, hb)
	RegisterHealthRoute(r)
	RegisterMetricsRoute(r)
}
