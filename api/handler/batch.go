package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
	"github.com/raul-padua/agentic-product-price-scrapping/webhook"
)

// batchTTL is how long a batch job stays queryable after creation.
const batchTTL = time.Hour

type batchJob struct {
	id        string
	status    string
	total     int
	completed int
	failed    int
	results   []models.RunResult
	createdAt time.Time
}

// BatchStore holds in-flight and completed batch jobs.
type BatchStore struct {
	mu   sync.Mutex
	jobs map[string]*batchJob
	now  func() time.Time
	stop chan struct{}
}

// NewBatchStore creates a store that expires jobs older than one hour.
func NewBatchStore() *BatchStore {
	s := &BatchStore{
		jobs: make(map[string]*batchJob),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go s.cleanupLoop(5 * time.Minute)
	return s
}

// Close stops the background expiry.
func (s *BatchStore) Close() {
	close(s.stop)
}

func (s *BatchStore) create(total int) *batchJob {
	job := &batchJob{
		id:        "batch-" + uuid.NewString(),
		status:    models.BatchProcessing,
		total:     total,
		results:   make([]models.RunResult, total),
		createdAt: s.now(),
	}
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()
	return job
}

func (s *BatchStore) record(job *batchJob, i int, r models.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.results[i] = r
	if r.OK {
		job.completed++
	} else {
		job.failed++
	}
}

func (s *BatchStore) finish(job *batchJob) models.BatchStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case job.failed == job.total:
		job.status = models.BatchFailed
	case job.failed > 0:
		job.status = models.BatchPartial
	default:
		job.status = models.BatchCompleted
	}
	return job.snapshot()
}

// Get returns a snapshot of the job with the given id.
func (s *BatchStore) Get(id string) (models.BatchStatusResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchStatusResponse{}, false
	}
	return job.snapshot(), true
}

// snapshot copies the job state. Callers hold the store lock.
func (j *batchJob) snapshot() models.BatchStatusResponse {
	resp := models.BatchStatusResponse{
		ID:        j.id,
		Status:    j.status,
		Completed: j.completed,
		Failed:    j.failed,
		Total:     j.total,
	}
	if j.status != models.BatchProcessing {
		resp.Results = append([]models.RunResult(nil), j.results...)
	}
	return resp
}

func (s *BatchStore) evictExpired() {
	cutoff := s.now().Add(-batchTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.createdAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

func (s *BatchStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

// PostBatch returns a handler for POST /api/v1/batch.
// It validates the request, creates a batch job and processes the URLs in
// the background. A webhook, when given, receives the final status.
func PostBatch(r Runner, store *BatchStore, maxBatch int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if maxBatch > 0 && len(req.URLs) > maxBatch {
			invalid(c, fmt.Sprintf("maximum %d URLs per batch", maxBatch))
			return
		}

		job := store.create(len(req.URLs))
		go runBatch(r, store, job, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.id,
			Status: models.BatchProcessing,
			Total:  job.total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := store.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				OK:    false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func runBatch(r Runner, store *BatchStore, job *batchJob, req models.RunRequest) {
	start := time.Now()
	r.RunBatchNotify(context.Background(), req.URLs, func(i int, res models.RunResult) {
		store.record(job, i, res)
	})
	final := store.finish(job)

	slog.Info("batch job finished",
		"id", final.ID,
		"status", final.Status,
		"completed", final.Completed,
		"failed", final.Failed,
		"total", final.Total,
		"ms", time.Since(start).Milliseconds(),
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     final.ID,
			Timestamp: time.Now().Unix(),
			Data:      final,
		})
	}
}
