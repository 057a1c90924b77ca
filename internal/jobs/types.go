package jobs

import (
	"context"
	"errors"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

var (
	// ErrJobNotFound is returned when no job has the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)

// CrawlJob is one requested crawl run.
type CrawlJob struct {
	JobID string `json:"job_id"`

	// Mode is "full" or "group-only".
	Mode        string `json:"mode"`
	SkipRefresh bool   `json:"skip_refresh"`

	Status JobStatus `json:"status"`

	// RunID is the pipeline run the job produced, once started.
	RunID string `json:"run_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// Done reports whether the job reached a final status.
func (j *CrawlJob) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Publisher enqueues crawl jobs.
type Publisher interface {
	PublishCrawl(ctx context.Context, job *CrawlJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for the in-flight job to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed.
// The handler may set RunID on the job it receives.
type JobHandler func(ctx context.Context, job *CrawlJob) error

// JobStore tracks job state.
type JobStore interface {
	SaveJob(ctx context.Context, job *CrawlJob) error
	GetJob(ctx context.Context, jobID string) (*CrawlJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*CrawlJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
