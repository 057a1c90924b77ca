package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/mf-dashboard/internal/jobs"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// Queue is a channel-backed job publisher and consumer for a single instance.
// It runs exactly one worker, so crawls never overlap.
type Queue struct {
	jobChan   chan *jobs.CrawlJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
	started   bool

	now func() time.Time
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can wait before PublishCrawl blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.CrawlJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		now:       time.Now,
	}
}

// PublishCrawl enqueues a copy of job. The job gets an ID, the pending
// status and a creation time when it has none.
func (q *Queue) PublishCrawl(ctx context.Context, job *jobs.CrawlJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return jobs.ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.now()
	}

	if err := q.save(ctx, job); err != nil {
		return fmt.Errorf("PublishCrawl: %w", err)
	}

	queued := *job
	select {
	case q.jobChan <- &queued:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start launches the worker. It returns immediately.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("Start: queue already started")
	}
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx, handler)
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.processJob(ctx, job, handler)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *jobs.CrawlJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	started := q.now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	if err := q.save(ctx, job); err != nil {
		log.Warn().Err(err).Msg("Failed to record job start")
	}

	err := handler(ctx, job)

	completed := q.now()
	job.CompletedAt = &completed
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Error().Err(err).Msg("Job failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Dur("duration", completed.Sub(started)).Msg("Job completed")
	}

	if err := q.save(ctx, job); err != nil {
		log.Warn().Err(err).Msg("Failed to record job result")
	}
}

func (q *Queue) save(ctx context.Context, job *jobs.CrawlJob) error {
	if q.store == nil {
		return nil
	}
	return q.store.SaveJob(ctx, job)
}

// Stop closes the queue and waits for the in-flight job. Jobs still
// waiting in the buffer stay pending.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
