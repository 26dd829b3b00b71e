package models

// CaptureRequest is the payload for POST /api/v1/capture.
type CaptureRequest struct {
	// URL is the product page to capture. Required.
	URL string `json:"url" binding:"required,url"`

	// Timeout is the navigation timeout in seconds.
	// Default: the configured capture timeout (45s). Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// RunRequest is the payload for POST /api/v1/run and POST /api/v1/batch.
type RunRequest struct {
	// URLs is the ordered list of product pages. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,url"`

	// WebhookURL receives a signed batch.completed event (async batches only).
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook body with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`

	// Domains restricts listings to these sites.
	Domains []string `json:"domains,omitempty"`

	// Sites is the free-text form of Domains (comma, space or newline separated).
	Sites string `json:"sites,omitempty"`

	// APIKey overrides the configured search provider key.
	APIKey string `json:"api_key,omitempty"`
}

// IngestRequest is the payload for POST /api/v1/ingest (image path).
type IngestRequest struct {
	URL              string `json:"url,omitempty"`
	ScreenshotBase64 string `json:"screenshot_base64"`
	ScreenshotMime   string `json:"screenshot_mime,omitempty"`
	VisionModel      string `json:"vision_model,omitempty"`
	APIKey           string `json:"api_key,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *IngestRequest) Defaults() {
	if r.ScreenshotMime == "" {
		r.ScreenshotMime = "image/png"
	}
}
