package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dvloznov/mf-dashboard/internal/api/middleware"
	"github.com/dvloznov/mf-dashboard/internal/jobs"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/pipeline"
)

// CrawlHandler enqueues crawl runs.
type CrawlHandler struct {
	publisher jobs.Publisher
}

// NewCrawlHandler creates a crawl handler.
func NewCrawlHandler(publisher jobs.Publisher) *CrawlHandler {
	return &CrawlHandler{publisher: publisher}
}

// EnqueueCrawl handles POST /api/crawl
func (h *CrawlHandler) EnqueueCrawl(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req struct {
		Mode        string `json:"mode"`
		SkipRefresh bool   `json:"skip_refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode, ok := pipeline.ParseMode(req.Mode)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "mode must be \"full\" or \"group-only\"")
		return
	}

	job := &jobs.CrawlJob{Mode: string(mode), SkipRefresh: req.SkipRefresh}
	if err := h.publisher.PublishCrawl(r.Context(), job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue crawl")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue crawl")
		return
	}

	log.Info().Str("job_id", job.JobID).Str("mode", job.Mode).Bool("skip_refresh", job.SkipRefresh).Msg("Crawl enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// JobsHandler reports crawl job state.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
