package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raul-padua/agentic-product-price-scrapping/api/handler"
	"github.com/raul-padua/agentic-product-price-scrapping/api/middleware"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Runner   handler.Runner
	Searcher handler.Searcher
	Sessions handler.StatsProvider
	Batches  *handler.BatchStore
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → per-group rate limit
//
// Capture, run, batch submission and ingest hold a browser or the vision
// service for the whole request and share the "capture" bucket; the rest use
// the "api" bucket. Health stays outside auth.
func NewRouter(d Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(d.Sessions, d.Runner.Workers(), startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	limiter := middleware.NewLimiter()
	rl := cfg.RateLimit
	browser := protected.Group("", limiter.Group("capture", rl.CaptureRequestsPerSecond, rl.CaptureBurst))
	light := protected.Group("", limiter.Group("api", rl.RequestsPerSecond, rl.Burst))

	browser.POST("/capture", handler.Capture(d.Runner))
	browser.POST("/run", handler.Run(d.Runner, cfg.Pipeline.MaxBatch))
	browser.POST("/batch", handler.PostBatch(d.Runner, d.Batches, cfg.Pipeline.MaxBatch))
	browser.POST("/ingest", handler.Ingest(d.Runner))

	light.GET("/batch/:id", handler.GetBatch(d.Batches))
	light.POST("/search", handler.Search(d.Searcher))

	return r
}
