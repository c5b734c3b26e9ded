// Package worker implements the in-process job queue: priority dispatch to
// per-topic handlers over a goroutine pool, with retry and exponential
// backoff. Jobs live in memory for the lifetime of the process.
package worker

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/google/uuid"
)

// Handler processes one job. Returning an error schedules a retry unless the
// error is permanent (see Permanent).
type Handler func(ctx context.Context, job domain.Job) error

// Observer is notified with a copy of a job after each status change.
type Observer func(job domain.Job)

// Config holds job queue configuration
type Config struct {
	Logger *slog.Logger
	// MaxRetries of 0 uses the default; a negative value disables retries.
	MaxRetries   int
	BackoffUnit  time.Duration
	PollInterval time.Duration
	// JobTimeout bounds a single handler run. Zero means no bound.
	JobTimeout time.Duration
	// MaxPending caps pending plus retrying jobs. Zero means unbounded.
	MaxPending int
}

// JobQueue holds jobs and dispatches them to registered handlers.
type JobQueue struct {
	logger       *slog.Logger
	maxRetries   int
	backoffUnit  time.Duration
	pollInterval time.Duration
	jobTimeout   time.Duration
	maxPending   int

	mu        sync.Mutex
	jobs      map[string]*domain.Job
	pending   jobHeap
	seq       uint64
	waiting   int
	handlers  map[string]Handler
	observers []Observer
	timers    map[string]*time.Timer

	// outbox holds job snapshots in the order their changes were made under
	// mu. One goroutine at a time drains it.
	outbox   []domain.Job
	draining bool

	wake chan struct{}

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     atomic.Int32
}

// New creates a job queue. Zero config values fall back to defaults.
func New(cfg Config) *JobQueue {
	q := &JobQueue{
		logger:       cfg.Logger,
		maxRetries:   cfg.MaxRetries,
		backoffUnit:  cfg.BackoffUnit,
		pollInterval: cfg.PollInterval,
		jobTimeout:   cfg.JobTimeout,
		maxPending:   cfg.MaxPending,
		jobs:         make(map[string]*domain.Job),
		handlers:     make(map[string]Handler),
		timers:       make(map[string]*time.Timer),
		wake:         make(chan struct{}, 1),
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	if q.maxRetries < 0 {
		q.maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		q.maxRetries = domain.DefaultMaxRetries
	}
	if q.backoffUnit <= 0 {
		q.backoffUnit = domain.DefaultBackoffUnit
	}
	if q.pollInterval <= 0 {
		q.pollInterval = domain.DefaultPollInterval
	}
	return q
}

// EnqueueOptions are the per-job settings built from EnqueueOption values.
type EnqueueOptions struct {
	Priority   int
	MaxRetries int
	// JobID is generated when empty.
	JobID string
}

// EnqueueOption customizes a single Enqueue call.
type EnqueueOption func(*EnqueueOptions)

// WithPriority sets the job priority. Higher values are served first.
func WithPriority(p int) EnqueueOption {
	return func(o *EnqueueOptions) { o.Priority = p }
}

// WithMaxRetries overrides the queue-wide retry limit for one job. Zero
// fails the job on its first error; negative values are ignored.
func WithMaxRetries(n int) EnqueueOption {
	return func(o *EnqueueOptions) {
		if n >= 0 {
			o.MaxRetries = n
		}
	}
}

// WithJobID enqueues the job under a caller-chosen id, so the caller can
// store the id before the job is visible to workers.
func WithJobID(id string) EnqueueOption {
	return func(o *EnqueueOptions) { o.JobID = id }
}

// Enqueue adds a pending job and returns its id. The payload is stored as
// JSON; json.RawMessage and []byte are stored as given.
func (q *JobQueue) Enqueue(ctx context.Context, topic string, payload any, opts ...EnqueueOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if topic == "" {
		return "", fmt.Errorf("%w: topic is required", domain.ErrInvalidPayload)
	}

	raw, err := encodePayload(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	o := EnqueueOptions{Priority: domain.DefaultPriority, MaxRetries: q.maxRetries}
	for _, opt := range opts {
		opt(&o)
	}
	if o.JobID == "" {
		o.JobID = uuid.New().String()
	}

	q.mu.Lock()
	if _, exists := q.jobs[o.JobID]; exists {
		q.mu.Unlock()
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateJob, o.JobID)
	}
	if q.maxPending > 0 && q.pending.Len()+q.waiting >= q.maxPending {
		q.mu.Unlock()
		return "", fmt.Errorf("%w: %d jobs waiting", domain.ErrQueueFull, q.maxPending)
	}

	job := &domain.Job{
		ID:         o.JobID,
		Topic:      topic,
		Payload:    raw,
		Status:     domain.JobStatusPending,
		Priority:   o.Priority,
		MaxRetries: o.MaxRetries,
		CreatedAt:  time.Now().UTC(),
	}
	q.jobs[job.ID] = job
	q.push(job)
	q.record(job)
	q.mu.Unlock()

	q.logger.Info("Job enqueued",
		slog.String("job_id", job.ID),
		slog.String("topic", topic),
		slog.Int("priority", o.Priority),
	)

	q.flush()
	q.signal()
	return o.JobID, nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		return append(json.RawMessage(nil), p...), nil
	case []byte:
		if !json.Valid(p) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		return append(json.RawMessage(nil), p...), nil
	default:
		return json.Marshal(payload)
	}
}

// RegisterHandler sets the handler for a topic, replacing any previous one.
func (q *JobQueue) RegisterHandler(topic string, handler Handler) {
	q.mu.Lock()
	_, replaced := q.handlers[topic]
	q.handlers[topic] = handler
	q.mu.Unlock()

	if replaced {
		q.logger.Debug("Handler replaced", slog.String("topic", topic))
		return
	}
	q.logger.Info("Handler registered", slog.String("topic", topic))
	q.signal()
}

// AddObserver registers fn to receive job updates.
func (q *JobQueue) AddObserver(fn Observer) {
	q.mu.Lock()
	q.observers = append(q.observers, fn)
	q.mu.Unlock()
}

// GetJobStatus returns a copy of the job with the given id.
func (q *JobQueue) GetJobStatus(jobID string) (domain.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.Job{}, false
	}
	return job.Clone(), true
}

// Stats returns job counts per status, registered topics and the number of
// running workers.
func (q *JobQueue) Stats() domain.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[domain.JobStatus]int, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}
	for _, job := range q.jobs {
		counts[job.Status]++
	}

	topics := make([]string, 0, len(q.handlers))
	for topic := range q.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	return domain.QueueStats{
		TotalJobs:        len(q.jobs),
		StatusCounts:     counts,
		RegisteredTopics: topics,
		WorkersRunning:   int(q.running.Load()),
	}
}

// push adds a pending job to the heap. Caller holds q.mu.
func (q *JobQueue) push(job *domain.Job) {
	q.seq++
	heap.Push(&q.pending, &heapItem{job: job, seq: q.seq})
}

// signal wakes one idle worker without blocking.
func (q *JobQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// record queues a snapshot of job for observers. Caller holds q.mu.
func (q *JobQueue) record(job *domain.Job) {
	q.outbox = append(q.outbox, job.Clone())
}

// flush delivers recorded snapshots in order. If another goroutine is
// already draining, it delivers ours too and flush returns at once.
func (q *JobQueue) flush() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true

	for len(q.outbox) > 0 {
		batch := q.outbox
		q.outbox = nil
		observers := append([]Observer(nil), q.observers...)
		q.mu.Unlock()

		for _, job := range batch {
			for _, fn := range observers {
				q.callObserver(fn, job)
			}
		}

		q.mu.Lock()
	}

	q.draining = false
	q.mu.Unlock()
}

func (q *JobQueue) callObserver(fn Observer, job domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Job observer panicked",
				slog.String("job_id", job.ID),
				slog.Any("panic", r),
			)
		}
	}()
	fn(job.Clone())
}
