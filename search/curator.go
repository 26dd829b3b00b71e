// Package search finds product listings for a natural-language query
// through an external web search provider.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/raul-padua/agentic-product-price-scrapping/cache"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const shoppingIntent = "buy price product listing"

// Curator queries the search provider and turns its results into ranked
// product listings. It is safe for concurrent use.
type Curator struct {
	client   *http.Client
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
	store    cache.Store
	logger   *slog.Logger
}

// NewCurator creates a Curator. store may be nil to disable caching.
func NewCurator(cfg config.SearchConfig, store cache.Store) *Curator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		rps = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Curator{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		limiter:  rate.NewLimiter(rps, burst),
		store:    store,
		logger:   slog.Default().With("component", "search"),
	}
}

// Search runs query restricted to domains with the configured API key.
func (c *Curator) Search(ctx context.Context, query string, domains []string) (*models.SearchResponse, error) {
	return c.SearchWithKey(ctx, "", query, domains)
}

// SearchWithKey is Search with a per-call API key; an empty key uses the
// configured one.
func (c *Curator) SearchWithKey(ctx context.Context, apiKey, query string, domains []string) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.Invalid("missing query")
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, models.Invalid("missing search provider API key")
	}

	key := cache.Key(query, domains, apiKey)
	if c.store != nil {
		if cached, ok := c.store.Get(ctx, key); ok {
			hit := *cached
			hit.CacheStatus = "HIT"
			return &hit, nil
		}
	}

	start := time.Now()
	raw, err := c.queryProvider(ctx, apiKey, AugmentQuery(query, domains))
	if err != nil {
		return nil, err
	}

	resp := curate(raw.Answer, raw.Results, domains)
	c.logger.Info("search finished",
		"query", query,
		"domains", len(domains),
		"results", len(resp.Results),
		"listings", len(resp.Listings),
		"ms", time.Since(start).Milliseconds(),
	)

	if c.store != nil {
		c.store.Set(ctx, key, resp)
	}
	out := *resp
	out.CacheStatus = "MISS"
	return &out, nil
}

// AugmentQuery appends site filters for domains (OR-joined) and generic
// shopping-intent keywords to query.
func AugmentQuery(query string, domains []string) string {
	parts := []string{strings.TrimSpace(query)}
	if len(domains) > 0 {
		sites := make([]string, 0, len(domains))
		for _, d := range domains {
			if d = strings.TrimSpace(d); d != "" {
				sites = append(sites, "site:"+d)
			}
		}
		if len(sites) > 0 {
			parts = append(parts, strings.Join(sites, " OR "))
		}
	}
	parts = append(parts, shoppingIntent)
	return strings.Join(parts, " ")
}

// curate builds the response from raw provider output: sanitized hits, the
// mined shopping set for every hit, and the ranked listings.
func curate(answer string, hits []providerHit, domains []string) *models.SearchResponse {
	resp := &models.SearchResponse{
		OK:       true,
		Answer:   models.StrPtr(StripStructured(answer)),
		Results:  make([]models.SearchHit, 0, len(hits)),
		Shopping: make([]models.ShoppingCandidate, 0, len(hits)),
	}
	for _, h := range hits {
		hit := models.SearchHit{
			Title:   h.Title,
			URL:     h.URL,
			Content: StripStructured(h.Content),
			Score:   h.Score,
		}
		resp.Results = append(resp.Results, hit)
		resp.Shopping = append(resp.Shopping, Mine(hit))
	}
	resp.Listings = Listings(resp.Shopping, domains)
	return resp
}
