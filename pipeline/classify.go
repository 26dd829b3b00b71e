package pipeline

import (
	"errors"
	"strings"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// browserUnavailableMessage replaces every infrastructure failure so users
// get one actionable message instead of a stack of launcher noise.
const browserUnavailableMessage = "Server screenshot capture is not available on this deployment. " +
	"Please use 'Client capture (pick tab)' or 'Upload screenshot (PNG)' instead."

var infraSignatures = []string{
	"chromium",
	"etxtbsy",
	"enoent",
	"/tmp/chromium",
	"executable not found",
	"executable file not found",
	"browser has disconnected",
	"failed to launch",
	"launcher",
}

// isInfraError reports whether err comes from the browser runtime rather
// than the page being captured.
func isInfraError(err error) bool {
	if err == nil {
		return false
	}
	var pe *models.PipelineError
	if errors.As(err, &pe) && pe.Code == models.ErrCodeBrowserUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range infraSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// classify maps a step error to the code and message reported for the URL.
func classify(err error) (code, message string) {
	if isInfraError(err) {
		return models.ErrCodeBrowserUnavailable, browserUnavailableMessage
	}
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return pe.Code, pe.Message
	}
	return models.ErrCodeInternal, err.Error()
}

// failedResult builds the RunResult for a failed URL.
func failedResult(url string, err error) models.RunResult {
	code, msg := classify(err)
	return models.RunResult{URL: url, OK: false, Error: &msg, ErrorCode: code}
}
