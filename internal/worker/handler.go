package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
)

// Validator is implemented by payload types that check their own fields.
type Validator interface {
	Validate() error
}

// Typed adapts a handler taking a decoded payload of type T. The payload is
// decoded and validated when the job is dequeued; a payload that fails
// either step fails the job without retries.
func Typed[T any](fn func(ctx context.Context, job domain.Job, payload T) error) Handler {
	return func(ctx context.Context, job domain.Job) error {
		var payload T
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		if v, ok := any(&payload).(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
			}
		}
		return fn(ctx, job, payload)
	}
}

// Permanent marks err so the queue fails the job instead of retrying it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewPermanentError(err)
}
