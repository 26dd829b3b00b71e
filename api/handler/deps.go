package handler

import (
	"context"
	"time"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Runner is the capture pipeline as the handlers use it.
type Runner interface {
	RunOneTimeout(ctx context.Context, url string, timeout time.Duration) models.RunResult
	RunBatch(ctx context.Context, urls []string) []models.RunResult
	RunBatchNotify(ctx context.Context, urls []string, notify func(i int, r models.RunResult)) []models.RunResult
	Ingest(ctx context.Context, req models.IngestRequest) (models.RunResult, error)
	Workers() int
}

// Searcher runs curated product searches.
type Searcher interface {
	SearchWithKey(ctx context.Context, apiKey, query string, domains []string) (*models.SearchResponse, error)
}

// StatsProvider reports browser session state.
type StatsProvider interface {
	Stats() models.SessionStats
}
