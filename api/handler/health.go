package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Degrades status when more than 80% of the capture workers are busy.
func Health(sp StatsProvider, workers int, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sp.Stats()
		stats.Workers = workers

		status := "healthy"
		if workers > 0 && stats.ActiveSessions > int(float64(workers)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Sessions: stats,
			Version:  Version,
		})
	}
}
