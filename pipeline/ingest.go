package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
	"github.com/raul-padua/agentic-product-price-scrapping/refine"
)

// Ingest extracts a product from an uploaded screenshot and refines it.
//
// Only invalid input is returned as an error. A vision failure yields a
// failed result carrying the empty record and the screenshot; a refine
// failure leaves Refined nil and the result OK.
func (o *Orchestrator) Ingest(ctx context.Context, req models.IngestRequest) (models.RunResult, error) {
	req.Defaults()
	req.ScreenshotBase64 = stripDataURL(req.ScreenshotBase64)
	if req.ScreenshotBase64 == "" {
		return models.RunResult{}, models.Invalid("Missing screenshotBase64")
	}
	if o.vision == nil {
		return models.RunResult{}, models.NewPipelineError(models.ErrCodeVisionFailure, "vision extraction is not configured", nil)
	}

	ctx = refine.WithAPIKey(ctx, req.APIKey)
	data := &models.CaptureData{
		ProductRecord:    models.EmptyRecord(),
		ScreenshotBase64: req.ScreenshotBase64,
		ScreenshotMime:   req.ScreenshotMime,
		FinalURL:         req.URL,
		CaptureMethod:    models.CaptureMethodUpload,
	}

	rec, err := o.vision.ExtractImage(ctx, refine.ImageRequest{
		URL:              req.URL,
		ScreenshotBase64: req.ScreenshotBase64,
		Mime:             req.ScreenshotMime,
		Model:            req.VisionModel,
	})
	if err != nil {
		var pe *models.PipelineError
		if errors.As(err, &pe) && pe.Code == models.ErrCodeInvalidInput {
			return models.RunResult{}, err
		}
		slog.Warn("vision extraction failed", "url", req.URL, "error", err)
		res := failedResult(req.URL, err)
		res.Data = data
		return res, nil
	}
	data.ProductRecord = *rec

	res := models.RunResult{URL: req.URL, OK: true, Data: data}
	refined, err := o.refiner.Refine(ctx, req.URL, *rec)
	if err != nil {
		slog.Warn("refine failed for ingested screenshot", "url", req.URL, "error", err)
		return res, nil
	}
	res.Refined = Merge(*rec, refined)
	return res, nil
}

// stripDataURL removes a "data:image/...;base64," prefix.
func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
