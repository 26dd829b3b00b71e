package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// dismissDialogs runs every dismissal action in order. Each attempt has its
// own deadline and its failure is ignored: most pages show none of these
// dialogs, and a dialog left open only degrades the screenshot.
func dismissDialogs(p *rod.Page, actions []DismissAction) int {
	clicked := 0
	for _, a := range actions {
		if err := dismissOnce(p, a); err != nil {
			continue
		}
		clicked++
		slog.Debug("dismissed dialog", "selector", a.Selector, "text", a.TextPattern)
	}
	return clicked
}

func dismissOnce(p *rod.Page, a DismissAction) error {
	tp := p.Timeout(a.Timeout)
	defer tp.CancelTimeout()

	var (
		el  *rod.Element
		err error
	)
	if a.TextPattern != "" {
		el, err = tp.ElementR(a.Selector, a.TextPattern)
	} else {
		el, err = tp.Element(a.Selector)
	}
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// simulateHuman moves the cursor and scrolls once. Best effort.
func simulateHuman(ctx context.Context, p *rod.Page) {
	if err := p.Mouse.MoveTo(proto.Point{X: 120, Y: 120}); err != nil {
		slog.Debug("cursor move failed", "error", err)
		return
	}
	if !sleepCtx(ctx, 600*time.Millisecond) {
		return
	}
	if err := p.Mouse.Scroll(0, 500, 0); err != nil {
		slog.Debug("scroll failed", "error", err)
	}
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
