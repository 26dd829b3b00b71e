package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raul-padua/agentic-product-price-scrapping/cache"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func newTestCurator(t *testing.T, handler http.HandlerFunc, store cache.Store) (*Curator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCurator(config.SearchConfig{Endpoint: srv.URL, APIKey: "tvly-test"}, store), srv
}

func decodeRequest(t *testing.T, r *http.Request) providerRequest {
	t.Helper()
	var req providerRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

const providerOK = `{
  "answer": "The iPhone 15 costs around R$ 4.999.",
  "results": [
    {"title": "Blog review", "url": "https://blog.example.org/review", "content": "A long review.", "score": 0.9},
    {"title": "iPhone 15 128GB", "url": "https://www.loja.com.br/p/123", "content": "Apple iPhone 15 por R$ 4.999,00 com 10% OFF. Vendido por: Loja Oficial | frete", "score": 0.8},
    {"title": "iPhone deals", "url": "https://shop.loja.com.br/ofertas", "content": "Sold by: Parceiro - R$ 5.100", "score": 0.7}
  ]
}`

func TestSearch_AdvancedSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		req := decodeRequest(t, r)
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.Equal(t, 8, req.MaxResults)
		assert.True(t, req.IncludeAnswer)
		assert.Equal(t, "shopping", req.Topic)
		assert.Equal(t, "tvly-test", req.APIKey)
		assert.Equal(t, "iphone 15 site:loja.com.br buy price product listing", req.Query)
		_, _ = w.Write([]byte(providerOK))
	}, nil)

	resp, err := c.Search(context.Background(), "iphone 15", []string{"loja.com.br"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Answer)
	assert.Len(t, resp.Results, 3)
	assert.Len(t, resp.Shopping, 3)

	require.Len(t, resp.Listings, 2)
	assert.Equal(t, "https://www.loja.com.br/p/123", resp.Listings[0].URL)
	require.NotNil(t, resp.Listings[0].Price)
	assert.Equal(t, "R$ 4.999,00", *resp.Listings[0].Price)
	require.NotNil(t, resp.Listings[0].Promo)
	assert.Equal(t, "10%", *resp.Listings[0].Promo)
	assert.Equal(t, "https://shop.loja.com.br/ofertas", resp.Listings[1].URL)
	require.NotNil(t, resp.Listings[1].Seller)
	assert.Equal(t, "Parceiro", *resp.Listings[1].Seller)
}

func TestSearch_RetriesOnceWithBasicPayload(t *testing.T) {
	var (
		mu     sync.Mutex
		depths []string
	)
	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		mu.Lock()
		depths = append(depths, req.SearchDepth)
		mu.Unlock()
		if req.SearchDepth == "advanced" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"topic not supported"}`))
			return
		}
		assert.Equal(t, 5, req.MaxResults)
		assert.Empty(t, req.Topic)
		assert.True(t, req.IncludeAnswer)
		_, _ = w.Write([]byte(providerOK))
	}, nil)

	resp, err := c.Search(context.Background(), "iphone 15", nil)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"advanced", "basic"}, depths)
	assert.Len(t, resp.Results, 3)
}

func TestSearch_TwoRejectionsSurfaceSecondStatus(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad topic"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}, nil)

	_, err := c.Search(context.Background(), "tv", nil)

	assert.Equal(t, int32(2), calls.Load())
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeSearchProvider, pe.Code)
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
	assert.Equal(t, "invalid api key", pe.Message)
}

func TestSearch_Validation(t *testing.T) {
	c := NewCurator(config.SearchConfig{Endpoint: "http://127.0.0.1:1"}, nil)

	_, err := c.Search(context.Background(), "  ", nil)
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeInvalidInput, pe.Code)

	_, err = c.Search(context.Background(), "tv", nil)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeInvalidInput, pe.Code)
}

func TestSearch_PerCallKeyOverride(t *testing.T) {
	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tvly-user", decodeRequest(t, r).APIKey)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, nil)

	resp, err := c.SearchWithKey(context.Background(), "tvly-user", "tv", nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
	assert.Empty(t, resp.Listings)
}

func TestSearch_CachesCuratedResponse(t *testing.T) {
	var calls atomic.Int32
	store := cache.NewMemory(10, 0)
	defer store.Close()

	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(providerOK))
	}, store)

	first, err := c.Search(context.Background(), "iphone 15", []string{"loja.com.br"})
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "iphone 15", []string{"loja.com.br"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "MISS", first.CacheStatus)
	assert.Equal(t, "HIT", second.CacheStatus)
	assert.Equal(t, first.Listings, second.Listings)
}

func TestSearch_UndecodableBodyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("not json"))
	}, nil)

	_, err := c.Search(context.Background(), "tv", nil)

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeSearchProvider, pe.Code)
	assert.Equal(t, http.StatusBadGateway, pe.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_CacheIsScopedByKey(t *testing.T) {
	var calls atomic.Int32
	store := cache.NewMemory(10, 0)
	defer store.Close()

	c, _ := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if decodeRequest(t, r).APIKey == "tvly-bad" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":{"error":"Unauthorized: missing or invalid API key."}}`))
			return
		}
		_, _ = w.Write([]byte(providerOK))
	}, store)

	_, err := c.Search(context.Background(), "iphone 15", nil)
	require.NoError(t, err)

	_, err = c.SearchWithKey(context.Background(), "tvly-bad", "iphone 15", nil)
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProviderErrorMessage(t *testing.T) {
	assert.Equal(t, "e", providerErrorMessage([]byte(`{"error":"e","message":"m"}`), 400))
	assert.Equal(t, "m", providerErrorMessage([]byte(`{"message":"m"}`), 400))
	assert.Equal(t, "d", providerErrorMessage([]byte(`{"detail":{"error":"d"}}`), 432))
	assert.Equal(t, "Tavily error 500", providerErrorMessage([]byte(`<html>oops</html>`), 500))
}

func TestAugmentQuery(t *testing.T) {
	assert.Equal(t, "tv buy price product listing", AugmentQuery(" tv ", nil))
	assert.Equal(t, "tv site:a.com OR site:b.com buy price product listing", AugmentQuery("tv", []string{"a.com", " ", "b.com"}))
}
