package domain

import "errors"

var (
	// ErrNoHandler is recorded on jobs whose topic has no registered handler
	ErrNoHandler = errors.New("no handler registered for topic")

	// ErrInvalidPayload is returned when a job payload cannot be decoded or validated
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrMaxRetriesExceeded is recorded when a job has used up its retries
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrInvalidTransition is returned for status changes outside the transition table
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrQueueFull is returned by Enqueue when the pending bound is reached
	ErrQueueFull = errors.New("job queue is full")

	// ErrDuplicateJob is returned by Enqueue when the job id is already taken
	ErrDuplicateJob = errors.New("job id already exists")
)

// PermanentError wraps failures that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent error: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new permanent error
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err should skip the retry policy.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p) || errors.Is(err, ErrInvalidPayload)
}
