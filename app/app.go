// Package app wires configuration into the running services shared by the
// HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/raul-padua/agentic-product-price-scrapping/cache"
	"github.com/raul-padua/agentic-product-price-scrapping/capture"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
	"github.com/raul-padua/agentic-product-price-scrapping/pipeline"
	"github.com/raul-padua/agentic-product-price-scrapping/refine"
	"github.com/raul-padua/agentic-product-price-scrapping/search"
)

// App holds the constructed services. Close releases the browser and the
// cache backend.
type App struct {
	Sessions     *capture.SessionFactory
	Orchestrator *pipeline.Orchestrator
	Curator      *search.Curator

	closers []func()
}

// New builds every service from cfg. The browser is launched lazily on the
// first capture, so New does not fail when Chromium is missing.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	profile := capture.ProfileFor(cfg.Browser.Locale)
	a.Sessions = capture.NewSessionFactory(cfg.Browser, profile)
	a.closers = append(a.closers, a.Sessions.Close)

	driver := capture.NewDriver(a.Sessions, cfg.Capture, profile)
	refiner := refine.NewClient(cfg.Refine)

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithTimeout(cfg.Capture.DefaultTimeout),
		pipeline.WithVision(refiner),
	}
	if cfg.Capture.StaticFallback {
		opts = append(opts, pipeline.WithStaticFallback(
			capture.NewStaticFetcher(cfg.Browser.Proxy, profile, cfg.Capture.DefaultTimeout),
		))
	}
	a.Orchestrator = pipeline.New(driver, refiner, opts...)

	store, err := a.newStore(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Curator = search.NewCurator(cfg.Search, store)

	slog.Info("services ready",
		"browser_mode", a.Sessions.Mode(),
		"locale", profile.Name,
		"workers", a.Orchestrator.Workers(),
		"static_fallback", cfg.Capture.StaticFallback,
	)
	return a, nil
}

func (a *App) newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("connect search cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = r.Close() })
		slog.Info("search cache: redis")
		return r, nil
	}
	m := cache.NewMemory(cfg.MaxEntries, cfg.TTL)
	a.closers = append(a.closers, m.Close)
	return m, nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewLogger builds a slog logger writing to w with the configured level and
// format.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
