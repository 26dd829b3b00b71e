package refine

import (
	"context"

	"github.com/raul-padua/agentic-product-price-scrapping/extractor"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// ImageRequest is a screenshot to read product fields from.
type ImageRequest struct {
	URL              string
	ScreenshotBase64 string
	Mime             string
	Model            string // empty uses the configured vision model
}

type imageExtractRequest struct {
	URL              string `json:"url"`
	ScreenshotBase64 string `json:"screenshot_base64"`
	Mime             string `json:"mime"`
	Model            string `json:"model"`
	APIKey           string `json:"api_key"`
}

// ExtractImage asks the vision service for the title, price and promotions
// visible in a screenshot. A missing screenshot or API key is INVALID_INPUT;
// non-2xx responses are VISION_EXTRACT_FAILED.
func (c *Client) ExtractImage(ctx context.Context, in ImageRequest) (*models.ProductRecord, error) {
	if in.ScreenshotBase64 == "" {
		return nil, models.Invalid("Missing screenshotBase64")
	}
	key := c.keyFor(ctx)
	if key == "" {
		return nil, models.Invalid("Missing API key for vision extraction")
	}
	model := in.Model
	if model == "" {
		model = c.visionModel
	}
	mime := in.Mime
	if mime == "" {
		mime = "image/png"
	}
	body := imageExtractRequest{
		URL:              in.URL,
		ScreenshotBase64: in.ScreenshotBase64,
		Mime:             mime,
		Model:            model,
		APIKey:           key,
	}

	out := models.EmptyRecord()
	if err := c.postJSON(ctx, "/image_extract", body, &out, models.ErrCodeVisionFailure); err != nil {
		return nil, err
	}
	out.Promotions = extractor.UniquePromotions(out.Promotions)
	return &out, nil
}
