package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Job is a unit of asynchronous work held by the queue.
type Job struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	Status        JobStatus       `json:"status"`
	Priority      int             `json:"priority"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	NextAttemptAt *time.Time      `json:"next_attempt_at,omitempty"`
}

// Clone returns a deep copy safe to hand out of the queue.
func (j *Job) Clone() Job {
	cp := *j
	if j.Payload != nil {
		cp.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	cp.StartedAt = cloneTime(j.StartedAt)
	cp.CompletedAt = cloneTime(j.CompletedAt)
	cp.NextAttemptAt = cloneTime(j.NextAttemptAt)
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing, JobStatusFailed},
	JobStatusProcessing: {JobStatusCompleted, JobStatusRetrying, JobStatusFailed},
	JobStatusRetrying:   {JobStatusPending},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the job to status to, or returns ErrInvalidTransition.
func (j *Job) Transition(to JobStatus) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	return nil
}

// QueueStats is a point-in-time view of the queue.
type QueueStats struct {
	TotalJobs        int               `json:"total_jobs"`
	StatusCounts     map[JobStatus]int `json:"status_counts"`
	RegisteredTopics []string          `json:"registered_topics"`
	WorkersRunning   int               `json:"workers_running"`
}
