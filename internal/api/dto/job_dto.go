package dto

import (
	"encoding/json"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
)

type JobDTO struct {
	JobID       string          `json:"job_id"`
	Topic       string          `json:"topic"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Priority    int             `json:"priority"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

func NewJobDTO(job domain.Job) JobDTO {
	return JobDTO{
		JobID:       job.ID,
		Topic:       job.Topic,
		Payload:     job.Payload,
		Status:      string(job.Status),
		Priority:    job.Priority,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		StartedAt:   formatTime(job.StartedAt),
		CompletedAt: formatTime(job.CompletedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
