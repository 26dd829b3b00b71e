package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.RefineConfig{BaseURL: srv.URL + "/", APIKey: "sk-default", VisionModel: "vision-1"})
}

func sampleRecord() models.ProductRecord {
	title, raw, cur := "Phone", "R$ 1.999,00", "BRL"
	value := 1999.0
	return models.ProductRecord{
		Title:      &title,
		Price:      models.Price{Raw: &raw, Value: &value, Currency: &cur},
		Promotions: []string{"Free shipping"},
	}
}

func TestRefine_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refine", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://x.com.br/p/1", body["url"])
		assert.Equal(t, "Phone", body["title"])
		assert.Equal(t, "R$ 1.999,00", body["price_raw"])
		assert.Equal(t, 1999.0, body["price_value"])
		assert.Equal(t, "BRL", body["price_currency"])
		assert.Equal(t, []any{"Free shipping"}, body["promotions"])
		assert.Equal(t, "sk-default", body["api_key"])

		_, _ = w.Write([]byte(`{"title":"Phone X","price_value":1999,"price_currency":"BRL","has_discount":false,"promo_summary":null}`))
	})

	out, err := c.Refine(context.Background(), "https://x.com.br/p/1", sampleRecord())
	require.NoError(t, err)
	require.NotNil(t, out.Title)
	assert.Equal(t, "Phone X", *out.Title)
	require.NotNil(t, out.HasDiscount)
	assert.False(t, *out.HasDiscount)
	assert.Nil(t, out.PromoSummary)
}

func TestRefine_NullFieldsAndKeyOverride(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Nil(t, body["title"])
		assert.Nil(t, body["price_value"])
		assert.Equal(t, []any{}, body["promotions"])
		assert.Equal(t, "sk-user", body["api_key"])
		_, _ = w.Write([]byte(`{}`))
	})

	ctx := WithAPIKey(context.Background(), " sk-user ")
	out, err := c.Refine(ctx, "https://x.com/p", models.ProductRecord{})
	require.NoError(t, err)
	assert.Nil(t, out.Title)
}

func TestRefine_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model overloaded"))
	})

	_, err := c.Refine(context.Background(), "https://x.com/p", sampleRecord())

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeRefineFailure, pe.Code)
	assert.Equal(t, http.StatusInternalServerError, pe.Status)
	assert.Equal(t, "refine failed: 500 - model overloaded", pe.Message)
}

func TestRefine_Unreachable(t *testing.T) {
	c := NewClient(config.RefineConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := c.Refine(context.Background(), "https://x.com/p", sampleRecord())

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeRefineFailure, pe.Code)
	assert.Equal(t, http.StatusBadGateway, pe.Status)
}

func TestExtractImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image_extract", r.URL.Path)
		var body imageExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "aGVsbG8=", body.ScreenshotBase64)
		assert.Equal(t, "image/png", body.Mime)
		assert.Equal(t, "vision-1", body.Model)
		assert.Equal(t, "sk-default", body.APIKey)
		_, _ = w.Write([]byte(`{"title":"TV 55","price":{"raw":"$499","value":499,"currency":"USD"}}`))
	})

	rec, err := c.ExtractImage(context.Background(), ImageRequest{URL: "https://x.com/p", ScreenshotBase64: "aGVsbG8="})
	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "TV 55", *rec.Title)
	require.NotNil(t, rec.Price.Value)
	assert.InDelta(t, 499, *rec.Price.Value, 1e-9)
	assert.NotNil(t, rec.Promotions)
	assert.Empty(t, rec.Promotions)
}

func TestExtractImage_NormalizesPromotions(t *testing.T) {
	promos := []string{"10% off", "10% off", "  Free shipping  ", ""}
	for i := 0; i < 25; i++ {
		promos = append(promos, fmt.Sprintf("Coupon %d", i))
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "TV", "promotions": promos})
	})

	rec, err := c.ExtractImage(context.Background(), ImageRequest{ScreenshotBase64: "aGVsbG8="})
	require.NoError(t, err)
	require.Len(t, rec.Promotions, 20)
	assert.Equal(t, []string{"10% off", "Free shipping", "Coupon 0"}, rec.Promotions[:3])
}

func TestExtractImage_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	})

	_, err := c.ExtractImage(context.Background(), ImageRequest{ScreenshotBase64: "x", Model: "other"})

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeVisionFailure, pe.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.Status)
}

func TestExtractImage_MissingInput(t *testing.T) {
	c := NewClient(config.RefineConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := c.ExtractImage(context.Background(), ImageRequest{})
	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeInvalidInput, pe.Code)
	assert.Equal(t, "Missing screenshotBase64", pe.Message)

	_, err = c.ExtractImage(context.Background(), ImageRequest{ScreenshotBase64: "x"})
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ErrCodeInvalidInput, pe.Code)
}
