package domain

import "time"

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

// Job status constants
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// AllStatuses lists every status in display order.
var AllStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusRetrying,
}

// Queue defaults
const (
	DefaultPriority     = 1
	DefaultMaxRetries   = 3
	DefaultBackoffUnit  = time.Second
	DefaultPollInterval = time.Second
)

// Topics
const (
	TopicMeetingProcess = "meeting.process"
)
