package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Capture returns a handler for POST /api/v1/capture.
//
// Per-URL failures are reported inside the RunResult with status 200; only
// invalid requests get a non-2xx status.
func Capture(r Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		timeout := time.Duration(req.Timeout) * time.Second
		res := r.RunOneTimeout(c.Request.Context(), req.URL, timeout)
		c.JSON(http.StatusOK, res)
	}
}

// Run returns a handler for POST /api/v1/run. It blocks until every URL is
// processed and returns results in request order.
func Run(r Runner, maxBatch int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if maxBatch > 0 && len(req.URLs) > maxBatch {
			invalid(c, fmt.Sprintf("maximum %d URLs per run", maxBatch))
			return
		}

		start := time.Now()
		results := r.RunBatch(c.Request.Context(), req.URLs)
		slog.Info("run finished", "urls", len(req.URLs), "ms", time.Since(start).Milliseconds())

		c.JSON(http.StatusOK, models.RunResponse{Results: results})
	}
}
