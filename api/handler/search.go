package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
	"github.com/raul-padua/agentic-product-price-scrapping/search"
)

// Search returns a handler for POST /api/v1/search.
func Search(s Searcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		domains := append([]string{}, req.Domains...)
		domains = append(domains, search.SplitDomains(req.Sites)...)

		resp, err := s.SearchWithKey(c.Request.Context(), req.APIKey, req.Query, domains)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
