package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Ingest returns a handler for POST /api/v1/ingest.
//
// Vision failures come back as a 200 RunResult with ok=false and the
// screenshot echoed so the client can retry without re-uploading.
func Ingest(r Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		res, err := r.Ingest(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
