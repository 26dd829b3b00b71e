// Package cache stores curated search responses. Captured product data is
// never cached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Store is a search response cache. Implementations are safe for concurrent
// use and treat every failure as a miss.
type Store interface {
	Get(ctx context.Context, key string) (*models.SearchResponse, bool)
	Set(ctx context.Context, key string, resp *models.SearchResponse)
}

// Key generates a cache key from the query, the allowed domains and the
// provider credential the response was fetched with. Domain order and case
// do not matter. Responses fetched with one key are never served to
// requests carrying another.
func Key(query string, domains []string, credential string) string {
	sorted := make([]string, len(domains))
	for i, d := range domains {
		sorted[i] = strings.ToLower(strings.TrimSpace(d))
	}
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(credential))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(query)))
	for _, d := range sorted {
		h.Write([]byte("|"))
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}
