package capture

import (
	"context"
	"errors"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// badStateSignatures are lower-cased fragments of errors that mean the
// browser process itself is gone or unusable, as opposed to a page failing.
var badStateSignatures = []string{
	"etxtbsy",
	"enoent",
	"executable",
	"no such file or directory",
	"chromium",
	"failed to launch",
	"browser has disconnected",
	"websocket: close",
	"use of closed network connection",
	"connection refused",
	"broken pipe",
}

// IsBadState reports whether err shows that a browser handle must not be
// reused. A BROWSER_UNAVAILABLE PipelineError always qualifies.
func IsBadState(err error) bool {
	if err == nil {
		return false
	}
	var pe *models.PipelineError
	if errors.As(err, &pe) && pe.Code == models.ErrCodeBrowserUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range badStateSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// categorizeError wraps raw errors into typed PipelineErrors so callers
// can tell timeouts, dead browsers and ordinary navigation failures apart.
func categorizeError(err error, msg string) *models.PipelineError {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeNavigationTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeNavigationTimeout, "capture canceled", err)
	case IsBadState(err):
		return models.NewPipelineError(models.ErrCodeBrowserUnavailable, msg, err)
	default:
		return models.NewPipelineError(models.ErrCodeNavigation, msg, err)
	}
}
