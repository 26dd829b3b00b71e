package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/raul-padua/agentic-product-price-scrapping/capture"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// stage is a node of the per-URL state machine.
type stage int

const (
	stageCapture stage = iota
	stageExtract
	stageRefine
	stageDone
	stageFailed
)

func (s stage) String() string {
	switch s {
	case stageCapture:
		return "capture"
	case stageExtract:
		return "extract"
	case stageRefine:
		return "refine"
	case stageDone:
		return "done"
	case stageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s stage) terminal() bool {
	return s == stageDone || s == stageFailed
}

// runState is the value threaded through the steps. Steps take it by value
// and return the next one.
type runState struct {
	url     string
	timeout time.Duration
	stage   stage
	capture *capture.Result
	record  models.ProductRecord
	refined *models.RefinedSummary
	err     error
}

// step advances a runState by one stage.
type step func(ctx context.Context, s runState) runState

func (s runState) fail(err error) runState {
	s.stage = stageFailed
	s.err = err
	return s
}

func (s runState) advance(next stage) runState {
	s.stage = next
	return s
}

// Merge fills the fields the refine service left empty from the extracted
// record. HasDiscount defaults to true when promotions exist, and
// PromoSummary to the first three promotions joined by "; ".
func Merge(rec models.ProductRecord, r *models.RefinedSummary) *models.RefinedSummary {
	out := models.RefinedSummary{}
	if r != nil {
		out = *r
	}
	if out.Title == nil {
		out.Title = rec.Title
	}
	if out.PriceValue == nil {
		out.PriceValue = rec.Price.Value
	}
	if out.PriceCurrency == nil {
		out.PriceCurrency = rec.Price.Currency
	}
	if out.HasDiscount == nil && len(rec.Promotions) > 0 {
		t := true
		out.HasDiscount = &t
	}
	if out.PromoSummary == nil && len(rec.Promotions) > 0 {
		n := min(len(rec.Promotions), 3)
		out.PromoSummary = models.StrPtr(strings.Join(rec.Promotions[:n], "; "))
	}
	return &out
}
