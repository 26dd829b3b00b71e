package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raul-padua/agentic-product-price-scrapping/api"
	"github.com/raul-padua/agentic-product-price-scrapping/api/handler"
	"github.com/raul-padua/agentic-product-price-scrapping/app"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("pricecap starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browserMode", cfg.Browser.Mode,
		"workers", cfg.Pipeline.Workers,
	)

	// ── 3. Build services (browser launches on first capture) ───────
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	services, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	batches := handler.NewBatchStore()
	defer batches.Close()

	// ── 4. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(api.Deps{
		Runner:   services.Orchestrator,
		Searcher: services.Curator,
		Sessions: services.Sessions,
		Batches:  batches,
	}, cfg, startTime)

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Captures can take up to the max timeout; give them a bounded drain.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// services.Close() runs via defer and kills Chrome.
	slog.Info("pricecap stopped")
}

// initLogger configures the default slog logger from the LogConfig.
func initLogger(cfg config.LogConfig) {
	slog.SetDefault(app.NewLogger(cfg, os.Stdout))
}
