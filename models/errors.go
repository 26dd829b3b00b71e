package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Capture failures.
	ErrCodeNavigationTimeout  = "NAVIGATION_TIMEOUT"
	ErrCodeBrowserUnavailable = "BROWSER_UNAVAILABLE"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeCapture            = "CAPTURE_FAILED"

	// External collaborator failures.
	ErrCodeRefineFailure  = "REFINE_FAILED"
	ErrCodeVisionFailure  = "VISION_EXTRACT_FAILED"
	ErrCodeSearchProvider = "SEARCH_PROVIDER_FAILED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	OK    bool         `json:"ok"`
	Error *ErrorDetail `json:"error"`
}

// PipelineError is the internal error type carrying an error code.
// Status holds the upstream HTTP status for collaborator failures.
type PipelineError struct {
	Code    string
	Message string
	Status  int
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// NewUpstreamError creates a PipelineError for a rejected collaborator call.
func NewUpstreamError(code string, status int, message string) *PipelineError {
	return &PipelineError{Code: code, Status: status, Message: message}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PipelineError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Status: e.Status}
}

// Invalid is shorthand for an INVALID_INPUT error.
func Invalid(message string) *PipelineError {
	return NewPipelineError(ErrCodeInvalidInput, message, nil)
}
