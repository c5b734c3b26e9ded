package app

import (
	"log/slog"

	"github.com/cuongbtq/botmr-be/internal/ai"
	"github.com/cuongbtq/botmr-be/internal/audio"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/cuongbtq/botmr-be/internal/events"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/cuongbtq/botmr-be/internal/storage"
)

type ServiceDeps struct {
	Store       storage.Store
	Audio       audio.Store
	Queue       service.JobQueue
	Transcriber ai.Transcriber
	Summarizer  ai.Summarizer
	Events      events.Emitter
	// Cache may be nil; settings are then read from the store every time.
	Cache     service.SettingsCache
	Recording config.RecordingConfig
	Logger    *slog.Logger
}

// Services holds the application services sharing one store.
type Services struct {
	Meetings   *service.MeetingService
	Recordings *service.RecordingService
	Tasks      *service.TaskService
	Messages   *service.MessageService
	Settings   *service.SettingsService
}

func NewServices(d ServiceDeps) *Services {
	meetings := service.NewMeetingService(service.MeetingDeps{
		Repo:        d.Store,
		Queue:       d.Queue,
		Audio:       d.Audio,
		Transcriber: d.Transcriber,
		Summarizer:  d.Summarizer,
		Events:      d.Events,
		Logger:      d.Logger.With(slog.String("component", "meetings")),
	})

	recordings := service.NewRecordingService(service.RecordingDeps{
		Repo:     d.Store,
		Meetings: meetings,
		Audio:    d.Audio,
		Events:   d.Events,
		Logger:   d.Logger.With(slog.String("component", "recordings")),
		Options: service.RecordingOptions{
			UploadPathPrefix:  d.Recording.UploadPathPrefix,
			HeartbeatTimeout:  d.Recording.HeartbeatTimeout,
			RetentionDays:     d.Recording.RetentionDays,
			MaxChunkSize:      d.Recording.MaxChunkSize,
			AllowedAudioTypes: d.Recording.AllowedAudioTypes,
		},
	})

	return &Services{
		Meetings:   meetings,
		Recordings: recordings,
		Tasks:      service.NewTaskService(d.Store, d.Logger.With(slog.String("component", "tasks"))),
		Messages:   service.NewMessageService(d.Store, d.Logger.With(slog.String("component", "messages"))),
		Settings:   service.NewSettingsService(d.Store, d.Cache, d.Logger.With(slog.String("component", "settings"))),
	}
}
