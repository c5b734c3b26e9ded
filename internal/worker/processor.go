package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
)

// processJob runs the handler for a claimed job and applies the retry policy
// to the result.
func (q *JobQueue) processJob(ctx context.Context, workerName string, job domain.Job, handler Handler) {
	q.logger.Info("Processing job",
		slog.String("job_id", job.ID),
		slog.String("topic", job.Topic),
		slog.String("worker_name", workerName),
		slog.Int("retry_count", job.RetryCount),
	)

	jobCtx := ctx
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := q.runHandler(jobCtx, handler, job)
	q.finish(job.ID, err, time.Since(start))
}

// runHandler invokes the handler and converts a panic into an error.
func (q *JobQueue) runHandler(ctx context.Context, handler Handler, job domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}

// finish records the outcome of a handler run.
func (q *JobQueue) finish(jobID string, runErr error, elapsed time.Duration) {
	q.mu.Lock()

	job, ok := q.jobs[jobID]
	if !ok {
		q.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	var delay time.Duration

	switch {
	case runErr == nil:
		_ = job.Transition(domain.JobStatusCompleted)
		job.Error = ""
		job.CompletedAt = &now

	case domain.IsPermanent(runErr):
		_ = job.Transition(domain.JobStatusFailed)
		job.Error = runErr.Error()
		job.CompletedAt = &now

	default:
		job.RetryCount++
		if job.RetryCount <= job.MaxRetries {
			_ = job.Transition(domain.JobStatusRetrying)
			job.Error = runErr.Error()
			delay = q.backoff(job.RetryCount)
			next := now.Add(delay)
			job.NextAttemptAt = &next
			q.waiting++
			q.timers[job.ID] = time.AfterFunc(delay, func() { q.rearm(jobID) })
		} else {
			_ = job.Transition(domain.JobStatusFailed)
			job.Error = fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, runErr).Error()
			job.CompletedAt = &now
		}
	}

	q.record(job)
	snapshot := job.Clone()
	q.mu.Unlock()

	switch snapshot.Status {
	case domain.JobStatusCompleted:
		q.logger.Info("Job completed successfully",
			slog.String("job_id", snapshot.ID),
			slog.String("topic", snapshot.Topic),
			slog.Duration("elapsed", elapsed),
		)
	case domain.JobStatusRetrying:
		q.logger.Warn("Job failed, will be retried",
			slog.String("job_id", snapshot.ID),
			slog.String("topic", snapshot.Topic),
			slog.Int("retry_count", snapshot.RetryCount),
			slog.Int("max_retries", snapshot.MaxRetries),
			slog.Duration("backoff", delay),
			slog.String("error", runErr.Error()),
		)
	default:
		q.logger.Error("Job failed permanently",
			slog.String("job_id", snapshot.ID),
			slog.String("topic", snapshot.Topic),
			slog.Int("retry_count", snapshot.RetryCount),
			slog.String("error", snapshot.Error),
		)
	}

	q.flush()
}

// rearm returns a retrying job to the pending heap once its backoff elapses.
func (q *JobQueue) rearm(jobID string) {
	q.mu.Lock()
	delete(q.timers, jobID)

	job, ok := q.jobs[jobID]
	if !ok || job.Status != domain.JobStatusRetrying {
		q.mu.Unlock()
		return
	}

	_ = job.Transition(domain.JobStatusPending)
	job.NextAttemptAt = nil
	q.waiting--
	q.push(job)
	q.record(job)
	snapshot := job.Clone()
	q.mu.Unlock()

	q.logger.Debug("Job re-armed after backoff",
		slog.String("job_id", jobID),
		slog.Int("retry_count", snapshot.RetryCount),
	)

	q.flush()
	q.signal()
}

// backoff returns base_unit * 2^retryCount.
func (q *JobQueue) backoff(retryCount int) time.Duration {
	if retryCount > 30 {
		retryCount = 30
	}
	return q.backoffUnit * time.Duration(1<<uint(retryCount))
}
