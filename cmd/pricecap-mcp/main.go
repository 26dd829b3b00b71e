package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func main() {
	apiURL := os.Getenv("PRICECAP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PRICECAP_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PRICECAP_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"pricecap",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	captureTool := mcp.NewTool("capture_product",
		mcp.WithDescription("Open a product page in a headless browser and return its title, price, currency and promotions, plus a refined summary."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Navigation timeout in seconds (default: 45, max: 120)"),
		),
	)
	s.AddTool(captureTool, handleCapture(apiURL, apiKey))

	batchTool := mcp.NewTool("capture_batch",
		mcp.WithDescription("Capture several product pages and return one result per URL in the same order. A failing URL does not affect the others."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of product page URLs"),
		),
	)
	s.AddTool(batchTool, handleBatch(apiURL, apiKey))

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search the web for product listings matching a query, optionally restricted to specific shopping sites."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for, e.g. 'iphone 15 128gb'"),
		),
		mcp.WithString("sites",
			mcp.Description("Comma separated domains to restrict listings to, e.g. 'amazon.com, mercadolivre.com.br'"),
		),
	)
	s.AddTool(searchTool, handleSearch(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiCall sends a request to the pricecap API and returns the response body.
func apiCall(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	return b, resp.StatusCode, err
}

// apiError extracts the error message from a non-2xx API response.
func apiError(body []byte, status int) string {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil {
		return fmt.Sprintf("[%s] %s", e.Error.Code, e.Error.Message)
	}
	return fmt.Sprintf("API returned status %d", status)
}

// pollBatch polls the batch endpoint until the job is no longer processing.
func pollBatch(ctx context.Context, client *http.Client, apiURL, apiKey, id string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, status, err := apiCall(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/batch/"+id, nil)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			if status != http.StatusOK {
				return nil, fmt.Errorf("poll: %s", apiError(body, status))
			}
			var st models.BatchStatusResponse
			if err := json.Unmarshal(body, &st); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if st.Status != models.BatchProcessing {
				return &st, nil
			}
		}
	}
}

func handleCapture(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		payload := models.CaptureRequest{URL: url, Timeout: int(request.GetFloat("timeout", 0))}

		body, status, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/capture", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, status)), nil
		}

		var res models.RunResult
		if err := json.Unmarshal(body, &res); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !res.OK {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", res.ErrorCode, models.Deref(res.Error))), nil
		}
		return mcp.NewToolResultText(formatResult(res)), nil
	}
}

func handleBatch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		body, status, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/batch", models.RunRequest{URLs: urls})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		if status != http.StatusAccepted {
			return mcp.NewToolResultError(apiError(body, status)), nil
		}

		var created models.BatchResponse
		if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		st, err := pollBatch(ctx, client, apiURL, apiKey, created.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d ok, %d failed of %d)\n\n", st.ID, st.Status, st.Completed, st.Failed, st.Total)
		for i, res := range st.Results {
			if res.OK {
				fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n\n", i+1, res.URL, formatResult(res))
			} else {
				fmt.Fprintf(&sb, "--- [%d] %s FAILED: %s ---\n\n", i+1, res.URL, models.Deref(res.Error))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}
		payload := models.SearchRequest{Query: query, Sites: request.GetString("sites", "")}

		body, status, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, status)), nil
		}

		var resp models.SearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearch(resp)), nil
	}
}

func formatResult(res models.RunResult) string {
	var sb strings.Builder
	if d := res.Data; d != nil {
		fmt.Fprintf(&sb, "Title: %s\n", orDash(d.Title))
		fmt.Fprintf(&sb, "Price: %s", orDash(d.Price.Raw))
		if d.Price.Value != nil {
			fmt.Fprintf(&sb, " (%.2f %s)", *d.Price.Value, orDash(d.Price.Currency))
		}
		sb.WriteString("\n")
		for _, p := range d.Promotions {
			fmt.Fprintf(&sb, "Promo: %s\n", p)
		}
	}
	if r := res.Refined; r != nil && r.PromoSummary != nil {
		fmt.Fprintf(&sb, "Summary: %s\n", *r.PromoSummary)
	}
	return sb.String()
}

func formatSearch(resp models.SearchResponse) string {
	var sb strings.Builder
	if resp.Answer != nil {
		fmt.Fprintf(&sb, "%s\n\n", *resp.Answer)
	}
	if len(resp.Listings) == 0 {
		sb.WriteString("No direct product listings found.\n")
	}
	for i, l := range resp.Listings {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, l.Title, l.URL)
		if l.Price != nil {
			fmt.Fprintf(&sb, "   Price: %s\n", *l.Price)
		}
		if l.Seller != nil {
			fmt.Fprintf(&sb, "   Seller: %s\n", *l.Seller)
		}
		if l.Promo != nil {
			fmt.Fprintf(&sb, "   Promo: %s\n", *l.Promo)
		}
	}
	return sb.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
