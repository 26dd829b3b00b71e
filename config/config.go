package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Browser session modes.
const (
	BrowserModePersistent = "persistent"
	BrowserModeEphemeral  = "ephemeral"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Capture   CaptureConfig
	Pipeline  PipelineConfig
	Refine    RefineConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how browser processes are launched.
type BrowserConfig struct {
	// Mode is "persistent" (one cached browser reused across captures) or
	// "ephemeral" (fresh browser per capture, torn down afterwards).
	Mode string // default: "persistent"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to the browser as --proxy-server and used by the
	// static fetcher.
	Proxy string

	// Locale selects the hardening profile: "en-US" or "pt-BR".
	Locale string // default: "en-US"
}

// CaptureConfig controls a single page capture.
type CaptureConfig struct {
	// DefaultTimeout bounds navigation when the caller gives none.
	DefaultTimeout time.Duration // default: 45s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// IdleWindow is the quiet period that counts as network idle.
	IdleWindow time.Duration // default: 1.5s

	// IdleTimeout bounds the network idle wait.
	IdleTimeout time.Duration // default: 10s

	// SettleDelay is the fixed wait after network idle.
	SettleDelay time.Duration // default: 1s

	// BlockAds blocks requests to known ad and tracking domains.
	BlockAds bool // default: false

	// StaticFallback fetches pages over plain HTTP when no browser is available.
	StaticFallback bool // default: false
}

// PipelineConfig controls batch orchestration.
type PipelineConfig struct {
	// Workers is the number of URLs captured concurrently.
	Workers int // default: 1

	// MaxBatch is the largest accepted batch.
	MaxBatch int // default: 100
}

// RefineConfig controls the external refine and vision service.
type RefineConfig struct {
	// BaseURL is the service root; /refine and /image_extract are appended.
	BaseURL string // default: "http://127.0.0.1:8000"

	// APIKey is forwarded to the service when set.
	APIKey string

	// VisionModel is the default model for image extraction.
	VisionModel string // default: "gpt-4o-mini"

	Timeout time.Duration // default: 60s
}

// SearchConfig controls the search provider client.
type SearchConfig struct {
	// Endpoint is the provider search URL.
	Endpoint string // default: "https://api.tavily.com/search"

	APIKey string

	// RequestsPerSecond throttles provider calls across all requests.
	RequestsPerSecond float64 // default: 2
	Burst             int     // default: 4

	Timeout time.Duration // default: 30s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys. Empty means open access.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting. Capture, run, batch
// submission and ingest draw from a separate capture bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10

	// CaptureRequestsPerSecond is the sustained capture rate per API key.
	CaptureRequestsPerSecond float64 // default: 0.5

	// CaptureBurst is the maximum capture burst per API key.
	CaptureBurst int // default: 3
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses in memory.
	MaxEntries int // default: 1000

	// TTL is how long a curated search response stays valid.
	TTL time.Duration // default: 10m

	// RedisURL switches the cache to Redis when set.
	RedisURL string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICECAP_HOST", "0.0.0.0"),
			Port: envIntOr("PRICECAP_PORT", 8080),
			Mode: envOr("PRICECAP_MODE", "release"),
		},
		Browser: BrowserConfig{
			Mode:       envOr("PRICECAP_BROWSER_MODE", BrowserModePersistent),
			Headless:   envBoolOr("PRICECAP_HEADLESS", true),
			NoSandbox:  envBoolOr("PRICECAP_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PRICECAP_BROWSER_BIN"),
			Proxy:      firstEnv("PRICECAP_PROXY", "HTTP_PROXY_URL", "HTTPS_PROXY_URL", "ALL_PROXY_URL"),
			Locale:     envOr("PRICECAP_LOCALE", "en-US"),
		},
		Capture: CaptureConfig{
			DefaultTimeout: envDurationOr("PRICECAP_CAPTURE_TIMEOUT", 45*time.Second),
			MaxTimeout:     envDurationOr("PRICECAP_MAX_TIMEOUT", 120*time.Second),
			IdleWindow:     envDurationOr("PRICECAP_IDLE_WINDOW", 1500*time.Millisecond),
			IdleTimeout:    envDurationOr("PRICECAP_IDLE_TIMEOUT", 10*time.Second),
			SettleDelay:    envDurationOr("PRICECAP_SETTLE_DELAY", time.Second),
			BlockAds:       envBoolOr("PRICECAP_BLOCK_ADS", false),
			StaticFallback: envBoolOr("PRICECAP_STATIC_FALLBACK", false),
		},
		Pipeline: PipelineConfig{
			Workers:  envIntOr("PRICECAP_WORKERS", 1),
			MaxBatch: envIntOr("PRICECAP_MAX_BATCH", 100),
		},
		Refine: RefineConfig{
			BaseURL:     envOr("PRICECAP_REFINE_URL", "http://127.0.0.1:8000"),
			APIKey:      firstEnv("PRICECAP_REFINE_API_KEY", "OPENAI_API_KEY"),
			VisionModel: envOr("PRICECAP_VISION_MODEL", "gpt-4o-mini"),
			Timeout:     envDurationOr("PRICECAP_REFINE_TIMEOUT", 60*time.Second),
		},
		Search: SearchConfig{
			Endpoint:          envOr("PRICECAP_SEARCH_URL", "https://api.tavily.com/search"),
			APIKey:            firstEnv("PRICECAP_SEARCH_API_KEY", "TAVILY_API_KEY"),
			RequestsPerSecond: envFloatOr("PRICECAP_SEARCH_RPS", 2),
			Burst:             envIntOr("PRICECAP_SEARCH_BURST", 4),
			Timeout:           envDurationOr("PRICECAP_SEARCH_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICECAP_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PRICECAP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:        envFloatOr("PRICECAP_RATE_RPS", 5.0),
			Burst:                    envIntOr("PRICECAP_RATE_BURST", 10),
			CaptureRequestsPerSecond: envFloatOr("PRICECAP_RATE_CAPTURE_RPS", 0.5),
			CaptureBurst:             envIntOr("PRICECAP_RATE_CAPTURE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICECAP_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("PRICECAP_CACHE_TTL", 10*time.Minute),
			RedisURL:   os.Getenv("PRICECAP_CACHE_REDIS_URL"),
		},
		Log: LogConfig{
			Level:  envOr("PRICECAP_LOG_LEVEL", "info"),
			Format: envOr("PRICECAP_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
