package models

// Batch job statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// RunResponse is the response for POST /api/v1/run.
type RunResponse struct {
	Results []RunResult `json:"results"`
}

// BatchResponse is the immediate response for POST /api/v1/batch.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Total     int         `json:"total"`
	Results   []RunResult `json:"results,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string       `json:"status"` // "healthy" or "degraded"
	Uptime   string       `json:"uptime"`
	Sessions SessionStats `json:"sessions"`
	Version  string       `json:"version"`
}

// SessionStats reports the state of the browser session factory.
type SessionStats struct {
	Mode           string `json:"mode"`
	BrowserRunning bool   `json:"browser_running"`
	ActiveSessions int    `json:"active_sessions"`
	Workers        int    `json:"workers"`
	Discarded      int64  `json:"discarded"`
}
