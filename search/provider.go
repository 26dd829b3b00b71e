package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// providerRequest is the search provider's request body.
type providerRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	Topic         string `json:"topic,omitempty"`
}

type providerHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// providerResponse is the search provider's success body.
type providerResponse struct {
	Answer  string        `json:"answer"`
	Results []providerHit `json:"results"`
}

// errMalformedResponse marks a 2xx reply whose body is not a search result.
// The provider accepted the request, so the basic retry would not help.
var errMalformedResponse = errors.New("malformed search response")

// advancedRequest asks for a deep, shopping-oriented search.
func advancedRequest(apiKey, query string) providerRequest {
	return providerRequest{
		APIKey:        apiKey,
		Query:         query,
		SearchDepth:   "advanced",
		MaxResults:    8,
		IncludeAnswer: true,
		Topic:         "shopping",
	}
}

// basicRequest is the reduced retry request. Older provider plans reject
// the shopping topic.
func basicRequest(apiKey, query string) providerRequest {
	return providerRequest{
		APIKey:        apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    5,
		IncludeAnswer: true,
	}
}

// queryProvider issues the advanced request and, if it is rejected or fails
// in transit, exactly one basic request. A second failure is returned as
// SEARCH_PROVIDER_FAILED with the second attempt's status and message. An
// accepted request with an undecodable body fails without a retry.
func (c *Curator) queryProvider(ctx context.Context, apiKey, query string) (*providerResponse, error) {
	resp, err := c.post(ctx, advancedRequest(apiKey, query))
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, errMalformedResponse) {
		return nil, err
	}
	c.logger.Warn("advanced search rejected, retrying with basic payload", "error", err)

	return c.post(ctx, basicRequest(apiKey, query))
}

// post sends one request. Any failure is a SEARCH_PROVIDER_FAILED
// PipelineError; transport failures carry status 502.
func (c *Curator) post(ctx context.Context, payload providerRequest) (*providerResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeSearchProvider, "search throttled", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeSearchProvider, "encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeSearchProvider, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, &models.PipelineError{
			Code:    models.ErrCodeSearchProvider,
			Message: "search provider unreachable",
			Status:  http.StatusBadGateway,
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 4*1024*1024))
	if err != nil {
		return nil, &models.PipelineError{
			Code:    models.ErrCodeSearchProvider,
			Message: "read search response",
			Status:  http.StatusBadGateway,
			Err:     err,
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, models.NewUpstreamError(models.ErrCodeSearchProvider, httpResp.StatusCode,
			providerErrorMessage(raw, httpResp.StatusCode))
	}

	var out providerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &models.PipelineError{
			Code:    models.ErrCodeSearchProvider,
			Message: "decode search response",
			Status:  http.StatusBadGateway,
			Err:     fmt.Errorf("%w: %v", errMalformedResponse, err),
		}
	}
	return &out, nil
}

// providerErrorMessage returns the provider's own error text: "error", then
// "message", then "detail.error", else a generic message with the status.
func providerErrorMessage(raw []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, k := range []string{"error", "message"} {
			if s, ok := body[k].(string); ok && s != "" {
				return s
			}
		}
		if detail, ok := body["detail"].(map[string]any); ok {
			if s, ok := detail["error"].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("Tavily error %d", status)
}
