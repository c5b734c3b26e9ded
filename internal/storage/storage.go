// Package storage defines the repository ports used by the services.
// Implementations return *domain.Error values: NotFoundError for missing
// rows and StorageError for backend failures.
package storage

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, m *domain.Meeting) error
	GetMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	ListMeetings(ctx context.Context, limit, skip int) ([]domain.Meeting, error)
	SearchMeetings(ctx context.Context, query string, limit int) ([]domain.Meeting, error)
	UpdateMeeting(ctx context.Context, m *domain.Meeting) error
	DeleteMeeting(ctx context.Context, id string) error
}

type RecordingRepository interface {
	CreateSession(ctx context.Context, s *domain.RecordingSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.RecordingSession, error)
	// UpdateSession writes s only if the stored status still equals from.
	// A mismatch returns a ConflictError.
	UpdateSession(ctx context.Context, s *domain.RecordingSession, from domain.SessionStatus) error
	ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.RecordingSession, error)
	DeleteSessions(ctx context.Context, filter domain.SessionFilter) (int64, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, meetingID string, limit int) ([]domain.Task, error)
	UpdateTask(ctx context.Context, t *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	ListMessages(ctx context.Context, meetingID string, limit int) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

type SettingsRepository interface {
	// GetSettings returns a NotFoundError when nothing has been saved yet.
	GetSettings(ctx context.Context) (*domain.UserSettings, error)
	SaveSettings(ctx context.Context, s *domain.UserSettings) error
}

// Store bundles every repository behind one backend.
type Store interface {
	MeetingRepository
	RecordingRepository
	TaskRepository
	MessageRepository
	SettingsRepository

	Ping(ctx context.Context) error
}
