// Package refine calls the external refine and vision services. Both are
// plain JSON over HTTP.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const maxErrorBody = 2048

// Client talks to the refine service. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	visionModel string
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg config.RefineConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		visionModel: cfg.VisionModel,
	}
}

type apiKeyCtxKey struct{}

// WithAPIKey returns a context whose refine and vision calls use key instead
// of the configured one.
func WithAPIKey(ctx context.Context, key string) context.Context {
	if key = strings.TrimSpace(key); key == "" {
		return ctx
	}
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

func (c *Client) keyFor(ctx context.Context) string {
	if k, ok := ctx.Value(apiKeyCtxKey{}).(string); ok && k != "" {
		return k
	}
	return c.apiKey
}

// refineRequest is the body of POST /refine.
type refineRequest struct {
	URL           string   `json:"url"`
	Title         *string  `json:"title"`
	PriceRaw      *string  `json:"price_raw"`
	PriceValue    *float64 `json:"price_value"`
	PriceCurrency *string  `json:"price_currency"`
	Promotions    []string `json:"promotions"`
	APIKey        string   `json:"api_key,omitempty"`
}

// Refine sends an extracted record for normalization and summarization and
// returns the service's answer as is. Any non-2xx response is REFINE_FAILED
// carrying the status and response body.
func (c *Client) Refine(ctx context.Context, pageURL string, rec models.ProductRecord) (*models.RefinedSummary, error) {
	promos := rec.Promotions
	if promos == nil {
		promos = []string{}
	}
	body := refineRequest{
		URL:           pageURL,
		Title:         rec.Title,
		PriceRaw:      rec.Price.Raw,
		PriceValue:    rec.Price.Value,
		PriceCurrency: rec.Price.Currency,
		Promotions:    promos,
		APIKey:        c.keyFor(ctx),
	}

	var out models.RefinedSummary
	if err := c.postJSON(ctx, "/refine", body, &out, models.ErrCodeRefineFailure); err != nil {
		return nil, err
	}
	return &out, nil
}

// postJSON posts body to path and decodes a 2xx response into out. Failures
// are PipelineErrors with the given code; transport failures carry 502.
func (c *Client) postJSON(ctx context.Context, path string, body, out any, code string) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return models.NewPipelineError(code, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return models.NewPipelineError(code, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.PipelineError{Code: code, Message: path + " request failed", Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return &models.PipelineError{Code: code, Message: "failed to read " + path + " response", Status: http.StatusBadGateway, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(respBody))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return models.NewUpstreamError(code, resp.StatusCode,
			fmt.Sprintf("%s failed: %d - %s", strings.TrimPrefix(path, "/"), resp.StatusCode, text))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &models.PipelineError{Code: code, Message: "failed to parse " + path + " response", Status: http.StatusBadGateway, Err: err}
	}
	return nil
}
