package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raul-padua/agentic-product-price-scrapping/api/handler"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

type stubRunner struct{}

func (stubRunner) RunOneTimeout(_ context.Context, url string, _ time.Duration) models.RunResult {
	return models.RunResult{URL: url, OK: true}
}

func (stubRunner) RunBatch(_ context.Context, urls []string) []models.RunResult {
	return make([]models.RunResult, len(urls))
}

func (s stubRunner) RunBatchNotify(ctx context.Context, urls []string, _ func(int, models.RunResult)) []models.RunResult {
	return s.RunBatch(ctx, urls)
}

func (stubRunner) Ingest(context.Context, models.IngestRequest) (models.RunResult, error) {
	return models.RunResult{OK: true}, nil
}

func (stubRunner) Workers() int { return 1 }

type stubSearcher struct{}

func (stubSearcher) SearchWithKey(context.Context, string, string, []string) (*models.SearchResponse, error) {
	return &models.SearchResponse{OK: true}, nil
}

type stubStats struct{}

func (stubStats) Stats() models.SessionStats { return models.SessionStats{Mode: "persistent"} }

func TestRouter(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Pipeline:  config.PipelineConfig{MaxBatch: 100},
	}
	store := handler.NewBatchStore()
	defer store.Close()
	r := NewRouter(Deps{Runner: stubRunner{}, Searcher: stubSearcher{}, Sessions: stubStats{}, Batches: store}, cfg, time.Now())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		key    string
		want   int
	}{
		{"health is open", http.MethodGet, "/api/v1/health", "", "", http.StatusOK},
		{"capture needs key", http.MethodPost, "/api/v1/capture", `{"url":"https://a.com"}`, "", http.StatusUnauthorized},
		{"capture", http.MethodPost, "/api/v1/capture", `{"url":"https://a.com"}`, "secret", http.StatusOK},
		{"run", http.MethodPost, "/api/v1/run", `{"urls":["https://a.com"]}`, "secret", http.StatusOK},
		{"batch", http.MethodPost, "/api/v1/batch", `{"urls":["https://a.com"]}`, "secret", http.StatusAccepted},
		{"search", http.MethodPost, "/api/v1/search", `{"query":"tv"}`, "secret", http.StatusOK},
		{"ingest", http.MethodPost, "/api/v1/ingest", `{"screenshot_base64":"eA=="}`, "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_CaptureBucketIsSeparate(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:        100,
			Burst:                    100,
			CaptureRequestsPerSecond: 0.001,
			CaptureBurst:             1,
		},
		Pipeline: config.PipelineConfig{MaxBatch: 100},
	}
	store := handler.NewBatchStore()
	defer store.Close()
	r := NewRouter(Deps{Runner: stubRunner{}, Searcher: stubSearcher{}, Sessions: stubStats{}, Batches: store}, cfg, time.Now())

	send := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("/api/v1/capture", `{"url":"https://a.com"}`))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/v1/run", `{"urls":["https://a.com"]}`))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/v1/ingest", `{"screenshot_base64":"eA=="}`))
	assert.Equal(t, http.StatusOK, send("/api/v1/search", `{"query":"tv"}`))
}
