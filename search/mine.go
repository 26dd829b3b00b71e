package search

import (
	"regexp"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const maxSnippet = 300

var (
	rePriceToken   = regexp.MustCompile(`(?:R\$|\$|€|£)\s?\d+[\d.,]*`)
	rePercentToken = regexp.MustCompile(`\b\d{1,3}%`)
	reSellerToken  = regexp.MustCompile(`(?i)(sold by|vendedor|seller):?\s*([^\n\r\-|]+)`)
)

// Mine extracts shopping fields from a sanitized hit: the first price token,
// the first percentage (a likely promotion), and a seller named after a
// "sold by", "seller" or "vendedor" label.
func Mine(hit models.SearchHit) models.ShoppingCandidate {
	content := hit.Content
	c := models.ShoppingCandidate{
		Title:   hit.Title,
		URL:     hit.URL,
		Snippet: truncateRunes(StripStructured(content), maxSnippet),
	}
	if m := rePriceToken.FindString(content); m != "" {
		c.Price = &m
	}
	if m := rePercentToken.FindString(content); m != "" {
		c.Promo = &m
	}
	if m := reSellerToken.FindStringSubmatch(content); m != nil {
		c.Seller = models.StrPtr(strings.TrimSpace(m[2]))
	}
	return c
}
