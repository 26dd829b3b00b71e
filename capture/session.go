package capture

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// Session is a browser handle leased from a SessionFactory. It must be
// returned with Release.
type Session struct {
	Browser *rod.Browser

	launcher *launcher.Launcher
	cached   bool
}

// destroy closes the CDP connection and kills the browser process.
func (s *Session) destroy() {
	if s.Browser != nil {
		_ = s.Browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}

// SessionFactory owns the browser process lifecycle.
//
// In persistent mode one browser is launched lazily and shared by every
// capture; the first bad-state error reported to Release discards it and the
// next Acquire launches a replacement. In ephemeral mode every Acquire
// launches a fresh process and Release tears it down.
//
// It is safe for concurrent use.
type SessionFactory struct {
	cfg     config.BrowserConfig
	profile LocaleProfile

	mu     sync.Mutex
	cached *Session

	active    atomic.Int32
	discarded atomic.Int64
}

// NewSessionFactory creates a factory. No browser is launched until the
// first Acquire.
func NewSessionFactory(cfg config.BrowserConfig, profile LocaleProfile) *SessionFactory {
	if cfg.Mode != config.BrowserModeEphemeral {
		cfg.Mode = config.BrowserModePersistent
	}
	return &SessionFactory{cfg: cfg, profile: profile}
}

// Mode returns "persistent" or "ephemeral".
func (f *SessionFactory) Mode() string {
	return f.cfg.Mode
}

// Acquire returns a connected browser. Launch failures are reported as
// BROWSER_UNAVAILABLE.
func (f *SessionFactory) Acquire(ctx context.Context) (*Session, error) {
	if f.cfg.Mode == config.BrowserModeEphemeral {
		s, err := f.launchBrowser(ctx)
		if err != nil {
			return nil, err
		}
		f.active.Add(1)
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		s, err := f.launchBrowser(ctx)
		if err != nil {
			return nil, err
		}
		s.cached = true
		f.cached = s
	}
	f.active.Add(1)
	return f.cached, nil
}

// Release returns a session after a capture. err is the capture's outcome:
// a bad-state error discards the persistent browser so it is never reused.
func (f *SessionFactory) Release(s *Session, err error) {
	if s == nil {
		return
	}
	f.active.Add(-1)

	if !s.cached {
		s.destroy()
		return
	}
	if !IsBadState(err) {
		return
	}

	f.mu.Lock()
	if f.cached == s {
		f.cached = nil
	}
	f.mu.Unlock()

	f.discarded.Add(1)
	slog.Warn("discarding browser after bad-state error", "error", err)
	s.destroy()
}

// Stats returns a snapshot of the factory's state.
func (f *SessionFactory) Stats() models.SessionStats {
	f.mu.Lock()
	running := f.cached != nil
	f.mu.Unlock()
	return models.SessionStats{
		Mode:           f.cfg.Mode,
		BrowserRunning: running,
		ActiveSessions: int(f.active.Load()),
		Discarded:      f.discarded.Load(),
	}
}

// Close kills the cached browser, if any.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (f *SessionFactory) Close() {
	f.mu.Lock()
	s := f.cached
	f.cached = nil
	f.mu.Unlock()
	if s != nil {
		slog.Info("session factory shutting down: closing browser")
		s.destroy()
	}
}

// launchBrowser starts and connects one browser process. Both modes use it.
func (f *SessionFactory) launchBrowser(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "browser launch canceled")
	}
	l := f.newLauncher()

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserUnavailable,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "mode", f.cfg.Mode)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserUnavailable,
			"failed to connect to browser",
			err,
		)
	}
	return &Session{Browser: browser, launcher: l}, nil
}

// newLauncher builds the launcher with the hardening flags for the
// configured mode.
func (f *SessionFactory) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(f.cfg.Headless).
		NoSandbox(f.cfg.NoSandbox)

	if f.cfg.BrowserBin != "" {
		l = l.Bin(f.cfg.BrowserBin)
	}
	if f.cfg.Proxy != "" {
		l = l.Proxy(f.cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("lang"), f.profile.LangFlag())
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	// Short-lived hosts: one process, no zygote, no sandbox, no GPU.
	if f.cfg.Mode == config.BrowserModeEphemeral {
		l = l.NoSandbox(true)
		l.Set(flags.Flag("single-process"))
		l.Set(flags.Flag("no-zygote"))
		l.Set(flags.Flag("disable-gpu"))
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}
	return l
}
