package worker

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
)

// StartWorkers spawns n worker goroutines. Calling it while workers are
// already running is a no-op.
func (q *JobQueue) StartWorkers(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("worker count must be greater than 0, got %d", n)
	}

	q.lifecycleMu.Lock()
	defer q.lifecycleMu.Unlock()

	if q.cancel != nil {
		q.logger.Warn("Workers already running", slog.Int("workers_running", int(q.running.Load())))
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.logger.Info("Spawning worker pool", slog.Int("concurrency", n))

	for i := 0; i < n; i++ {
		q.wg.Add(1)
		q.running.Add(1)
		go q.workerLoop(workerCtx, i)
	}

	q.logger.Info("Worker pool spawned successfully", slog.Int("worker_count", n))
	return nil
}

// StopWorkers cancels the worker context and waits for every worker loop
// to return. In-flight handlers see their context canceled.
func (q *JobQueue) StopWorkers() {
	q.lifecycleMu.Lock()
	defer q.lifecycleMu.Unlock()

	if q.cancel == nil {
		return
	}

	q.logger.Info("Stopping workers...")
	q.cancel()
	q.wg.Wait()
	q.cancel = nil
	q.logger.Info("Workers stopped")
}

// workerLoop is the main processing loop for each worker goroutine
func (q *JobQueue) workerLoop(ctx context.Context, workerNum int) {
	defer q.wg.Done()
	defer q.running.Add(-1)

	workerName := fmt.Sprintf("worker-%d", workerNum)
	q.logger.Debug("Worker goroutine started", slog.String("worker_name", workerName))

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			q.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return
		}

		job, handler, ok := q.claim()
		if ok {
			if handler != nil {
				q.processJob(ctx, workerName, job, handler)
			}
			continue
		}

		select {
		case <-ctx.Done():
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

// claim atomically pops the highest-priority pending job and marks it
// processing. A job whose topic has no handler is failed on the spot and
// returned with a nil handler.
func (q *JobQueue) claim() (domain.Job, Handler, bool) {
	q.mu.Lock()

	if q.pending.Len() == 0 {
		q.mu.Unlock()
		return domain.Job{}, nil, false
	}

	item := heap.Pop(&q.pending).(*heapItem)
	job := item.job
	now := time.Now().UTC()

	handler, ok := q.handlers[job.Topic]
	if !ok {
		_ = job.Transition(domain.JobStatusFailed)
		job.Error = fmt.Errorf("%w: %s", domain.ErrNoHandler, job.Topic).Error()
		job.CompletedAt = &now
	} else {
		_ = job.Transition(domain.JobStatusProcessing)
		job.StartedAt = &now
		job.NextAttemptAt = nil
	}

	more := q.pending.Len() > 0
	q.record(job)
	snapshot := job.Clone()
	q.mu.Unlock()

	if more {
		q.signal()
	}

	if handler == nil {
		q.logger.Error("No handler registered for job",
			slog.String("job_id", snapshot.ID),
			slog.String("topic", snapshot.Topic),
		)
	}

	q.flush()
	return snapshot, handler, true
}
