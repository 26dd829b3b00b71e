// Package capture drives a headless browser to render product pages and
// take full-page screenshots, and falls back to a fingerprinted plain HTTP
// fetch when no browser is available.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const whiteBackgroundJS = `() => {
	const el = document.querySelector("body");
	if (el) el.style.background = "#fff";
}`

// Driver renders pages in browsers leased from a SessionFactory.
// It is safe for concurrent use; each Capture opens its own page.
type Driver struct {
	sessions *SessionFactory
	cfg      config.CaptureConfig
	profile  LocaleProfile
}

// NewDriver creates a Driver.
func NewDriver(sessions *SessionFactory, cfg config.CaptureConfig, profile LocaleProfile) *Driver {
	return &Driver{sessions: sessions, cfg: cfg, profile: profile}
}

// Sessions returns the driver's session factory.
func (d *Driver) Sessions() *SessionFactory {
	return d.sessions
}

// Capture navigates to targetURL and returns the rendered HTML and a
// full-page PNG. A zero timeout uses the configured default.
//
// Lifecycle:
//
//  1. Timeout guard     – hard deadline on navigation and settle
//  2. Acquire browser   – from the session factory; DEFER release with outcome
//  3. Open page         – stealth page; DEFER close on every path
//  4. Harden            – locale profile (before navigation!)
//  5. Ad block          – optional hijack router (before navigation!)
//  6. Navigate          – wait for DOMContentLoaded only
//  7. Interact          – cursor move + scroll, dismissal clicks
//  8. Settle            – network idle (soft), fixed delay
//  9. Read              – white background, HTML, screenshot
func (d *Driver) Capture(ctx context.Context, targetURL string, timeout time.Duration) (res *Result, err error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	if timeout <= 0 {
		timeout = d.cfg.DefaultTimeout
	}
	if d.cfg.MaxTimeout > 0 && timeout > d.cfg.MaxTimeout {
		timeout = d.cfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	// ── 2. Acquire browser ────────────────────────────────────────────
	session, err := d.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { d.sessions.Release(session, err) }()

	// ── 3. Open page ──────────────────────────────────────────────────
	page, err := stealth.Page(session.Browser)
	if err != nil {
		return nil, categorizeError(err, "failed to open page")
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Debug("page close failed", "url", targetURL, "error", closeErr)
		}
	}()

	// ── 4. Harden ─────────────────────────────────────────────────────
	if hardenErr := d.profile.apply(page, targetURL); hardenErr != nil {
		slog.Warn("page hardening incomplete, proceeding", "url", targetURL, "error", hardenErr)
	}

	// ── 5. Ad block ───────────────────────────────────────────────────
	var router *rod.HijackRouter
	if d.cfg.BlockAds {
		router = blockAds(page)
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx)
	waitDOM := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err = p.Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	waitDOM()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = categorizeError(ctxErr, "timed out waiting for DOMContentLoaded")
		return nil, err
	}

	// ── 7. Interact ───────────────────────────────────────────────────
	simulateHuman(ctx, p)
	dismissed := dismissDialogs(p, d.profile.Dismissals)

	// ── 8. Settle ─────────────────────────────────────────────────────
	d.waitSettled(p, router != nil)
	sleepCtx(ctx, d.cfg.SettleDelay)

	// ── 9. Read ───────────────────────────────────────────────────────
	_, _ = p.Eval(whiteBackgroundJS)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}

	shot, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		err = captureError(err)
		return nil, err
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	slog.Info("capture finished",
		"url", targetURL,
		"ms", time.Since(start).Milliseconds(),
		"dismissed", dismissed,
		"html_bytes", len(rawHTML),
	)

	return &Result{
		HTML:       rawHTML,
		Screenshot: shot,
		FinalURL:   finalURL,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		Method:     models.CaptureMethodBrowser,
	}, nil
}

// waitSettled waits for the network to go quiet, bounded by IdleTimeout.
// WaitRequestIdle conflicts with the hijack router's Fetch domain, so a
// DOM-stable wait is used while ad blocking is on. Neither wait is fatal.
func (d *Driver) waitSettled(p *rod.Page, hijacked bool) {
	tp := p.Timeout(d.cfg.IdleTimeout)
	defer tp.CancelTimeout()

	if hijacked {
		if err := tp.WaitDOMStable(d.cfg.IdleWindow, 0.1); err != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
		}
		return
	}
	tp.WaitRequestIdle(d.cfg.IdleWindow, nil, nil, nil)()
}

// captureError classifies a failure after navigation succeeded.
func captureError(err error) *models.PipelineError {
	if errors.Is(err, context.DeadlineExceeded) || IsBadState(err) {
		return categorizeError(err, "failed to capture screenshot")
	}
	return models.NewPipelineError(models.ErrCodeCapture, "failed to capture screenshot", err)
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
