package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes. The metrics handler is optional
// so tests can skip Prometheus registration.
func SetupRoutes(router *gin.Engine, handler *Handler, metrics http.Handler) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		categorize := v1.Group("/categorize")
		{
			categorize.POST("", handler.Categorize)            // POST /api/v1/categorize
			categorize.POST("/batch", handler.CategorizeBatch) // POST /api/v1/categorize/batch
		}

		incidents := v1.Group("/incidents")
		{
			incidents.POST("", handler.Incidents)              // POST /api/v1/incidents
			incidents.POST("/context", handler.IncidentContext) // POST /api/v1/incidents/context
		}

		dictionaries := v1.Group("/dictionaries")
		{
			dictionaries.GET("", handler.ListDictionaries)      // GET /api/v1/dictionaries
			dictionaries.GET("/:domain", handler.GetDictionary) // GET /api/v1/dictionaries/:domain
		}

		v1.GET("/history", handler.GetHistory) // GET /api/v1/history
		v1.GET("/stats", handler.GetStats)     // GET /api/v1/stats
	}
}
