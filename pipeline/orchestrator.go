// Package pipeline runs product URLs through capture, extraction and
// refinement, one URL at a time or as an order-preserving batch.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raul-padua/agentic-product-price-scrapping/capture"
	"github.com/raul-padua/agentic-product-price-scrapping/extractor"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
	"github.com/raul-padua/agentic-product-price-scrapping/refine"
)

// Capturer renders a page in a browser.
type Capturer interface {
	Capture(ctx context.Context, url string, timeout time.Duration) (*capture.Result, error)
}

// Fetcher retrieves a page without a browser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*capture.Result, error)
}

// Refiner normalizes an extracted record.
type Refiner interface {
	Refine(ctx context.Context, url string, rec models.ProductRecord) (*models.RefinedSummary, error)
}

// VisionExtractor reads a product record from a screenshot.
type VisionExtractor interface {
	ExtractImage(ctx context.Context, in refine.ImageRequest) (*models.ProductRecord, error)
}

// Orchestrator runs the capture → extract → refine state machine.
type Orchestrator struct {
	capturer Capturer
	refiner  Refiner
	vision   VisionExtractor
	fallback Fetcher
	workers  int
	timeout  time.Duration
	steps    map[stage]step
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets how many URLs of a batch run concurrently.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout sets the per-URL capture timeout. Zero leaves the capturer's
// default.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithStaticFallback fetches pages with f when the browser is unavailable.
func WithStaticFallback(f Fetcher) Option {
	return func(o *Orchestrator) { o.fallback = f }
}

// WithVision enables the image ingest path.
func WithVision(v VisionExtractor) Option {
	return func(o *Orchestrator) { o.vision = v }
}

// New creates an Orchestrator. It runs sequentially unless WithWorkers says
// otherwise.
func New(c Capturer, r Refiner, opts ...Option) *Orchestrator {
	o := &Orchestrator{capturer: c, refiner: r, workers: 1}
	for _, opt := range opts {
		opt(o)
	}
	o.steps = map[stage]step{
		stageCapture: o.captureStep,
		stageExtract: o.extractStep,
		stageRefine:  o.refineStep,
	}
	return o
}

// Workers returns the batch concurrency.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// RunOne processes a single URL. Failures are reported in the result, never
// returned.
func (o *Orchestrator) RunOne(ctx context.Context, url string) models.RunResult {
	return o.RunOneTimeout(ctx, url, o.timeout)
}

// RunOneTimeout is RunOne with an explicit capture timeout.
func (o *Orchestrator) RunOneTimeout(ctx context.Context, url string, timeout time.Duration) models.RunResult {
	start := time.Now()
	s := runState{url: url, stage: stageCapture, timeout: timeout}

	for !s.stage.terminal() {
		from := s.stage
		s = o.steps[from](ctx, s)
		slog.Debug("pipeline transition", "url", url, "from", from.String(), "to", s.stage.String())
	}

	if s.stage == stageFailed {
		res := failedResult(url, s.err)
		slog.Warn("pipeline failed",
			"url", url,
			"code", res.ErrorCode,
			"error", s.err,
			"ms", time.Since(start).Milliseconds(),
		)
		return res
	}

	slog.Info("pipeline finished", "url", url, "ms", time.Since(start).Milliseconds())
	return successResult(url, s)
}

// RunBatch processes urls and returns one result per URL in input order.
// A failing URL never affects the others.
func (o *Orchestrator) RunBatch(ctx context.Context, urls []string) []models.RunResult {
	return o.RunBatchNotify(ctx, urls, nil)
}

// RunBatchNotify is RunBatch that calls notify as each URL finishes. notify
// may be called from several goroutines at once.
func (o *Orchestrator) RunBatchNotify(ctx context.Context, urls []string, notify func(i int, r models.RunResult)) []models.RunResult {
	results := make([]models.RunResult, len(urls))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, u := range urls {
		g.Go(func() error {
			res := o.RunOne(ctx, u)
			results[i] = res
			if notify != nil {
				notify(i, res)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) captureStep(ctx context.Context, s runState) runState {
	res, err := o.capturer.Capture(ctx, s.url, s.timeout)
	if err != nil {
		var pe *models.PipelineError
		if o.fallback == nil || !errors.As(err, &pe) || pe.Code != models.ErrCodeBrowserUnavailable {
			return s.fail(err)
		}
		slog.Warn("browser unavailable, using static fetch", "url", s.url, "error", err)
		res, err = o.fallback.Fetch(ctx, s.url)
		if err != nil {
			return s.fail(err)
		}
	}
	s.capture = res
	return s.advance(stageExtract)
}

func (o *Orchestrator) extractStep(_ context.Context, s runState) runState {
	pageURL := s.url
	if s.capture.FinalURL != "" {
		pageURL = s.capture.FinalURL
	}
	s.record = extractor.Extract(s.capture.HTML, pageURL)
	if s.record.Title == nil {
		// Scripts may set document.title after the markup was served.
		s.record.Title = models.StrPtr(strings.TrimSpace(s.capture.Title))
	}
	return s.advance(stageRefine)
}

func (o *Orchestrator) refineStep(ctx context.Context, s runState) runState {
	refined, err := o.refiner.Refine(ctx, s.url, s.record)
	if err != nil {
		return s.fail(err)
	}
	s.refined = Merge(s.record, refined)
	return s.advance(stageDone)
}

func successResult(url string, s runState) models.RunResult {
	data := &models.CaptureData{
		ProductRecord: s.record,
		FinalURL:      s.capture.FinalURL,
		CaptureMethod: s.capture.Method,
	}
	if len(s.capture.Screenshot) > 0 {
		data.ScreenshotBase64 = base64.StdEncoding.EncodeToString(s.capture.Screenshot)
		data.ScreenshotMime = "image/png"
	}
	if data.CaptureMethod == "" {
		data.CaptureMethod = models.CaptureMethodBrowser
	}
	return models.RunResult{URL: url, OK: true, Data: data, Refined: s.refined}
}
