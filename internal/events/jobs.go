package events

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/worker"
	"github.com/cuongbtq/botmr-be/internal/worker/domain"
)

// JobObserver announces every job status change as job.updated.
func JobObserver(emitter Emitter) worker.Observer {
	return func(job domain.Job) {
		data := map[string]any{
			"job_id":      job.ID,
			"topic":       job.Topic,
			"status":      string(job.Status),
			"priority":    job.Priority,
			"retry_count": job.RetryCount,
		}
		if job.Error != "" {
			data["error"] = job.Error
		}
		emitter.Emit(context.Background(), JobUpdated, data)
	}
}
