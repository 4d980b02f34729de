package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sectify/models"
	"github.com/use-agent/sectify/pipeline"
	"github.com/use-agent/sectify/webhook"
)

// batchStore holds all in-flight and completed batch jobs. batchMu
// guards the mutable fields of stored jobs; worker goroutines update
// them while status requests read them.
var (
	batchStore sync.Map
	batchMu    sync.Mutex
)

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*models.BatchJob)
				if job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/batch/scrape.
// It validates the request, creates a batch job, and launches goroutines
// to scrape each URL concurrently. maxConcurrent bounds in-flight
// scrapes; webhookSecret signs the completion notification.
func PostBatch(p *pipeline.Pipeline, maxConcurrent int, webhookSecret string) gin.HandlerFunc {
	notifier := webhook.NewNotifier(webhookSecret)

	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		job := &models.BatchJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(req.URLs),
			Completed: 0,
			Results:   make([]*models.ScrapeResult, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}
		batchStore.Store(jobID, job)

		// Launch scraping in background.
		go runBatch(p, maxConcurrent, notifier, job, req)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		job := val.(*models.BatchJob)
		batchMu.Lock()
		resp := models.BatchStatusResponse{
			ID:        job.ID,
			Status:    job.Status,
			Completed: job.Completed,
			Total:     job.Total,
			Results:   append([]*models.ScrapeResult(nil), job.Results...),
		}
		batchMu.Unlock()
		c.JSON(http.StatusOK, resp)
	}
}

// runBatch processes all URLs in a batch job with concurrency limited by
// a semaphore. A URL counts as failed when its result has no sections
// and at least one recorded error.
func runBatch(p *pipeline.Pipeline, maxConcurrent int, notifier *webhook.Notifier, job *models.BatchJob, req models.BatchRequest) {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	var failed atomic.Int32

	opts := pipeline.Options{
		Selector:        req.Options.Selector,
		IncludeMarkdown: req.Options.IncludeMarkdown,
	}

	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := p.Run(context.Background(), targetURL, opts)

			if len(result.Sections) == 0 && len(result.Errors) > 0 {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}

			batchMu.Lock()
			job.Results[idx] = result
			job.Completed = int(succeeded.Load()) + int(failed.Load())
			batchMu.Unlock()
		}(i, rawURL)
	}

	wg.Wait()

	failedCount := int(failed.Load())
	succeededCount := int(succeeded.Load())

	batchMu.Lock()
	switch {
	case failedCount == job.Total:
		job.Status = "failed"
	case failedCount > 0:
		job.Status = "partial"
	default:
		job.Status = "completed"
	}
	job.Completed = succeededCount + failedCount
	batchMu.Unlock()

	slog.Info("batch job finished",
		"id", job.ID,
		"status", job.Status,
		"succeeded", succeededCount,
		"failed", failedCount,
		"total", job.Total,
	)

	if req.WebhookURL != "" {
		notifier.NotifyAsync(req.WebhookURL, &webhook.Event{
			Type:      "batch." + job.Status,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data: models.BatchStatusResponse{
				ID:        job.ID,
				Status:    job.Status,
				Completed: job.Completed,
				Total:     job.Total,
			},
		})
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
