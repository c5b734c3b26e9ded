package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/cuongbtq/botmr-be/internal/ai"
	"github.com/cuongbtq/botmr-be/internal/audio"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/events"
	"github.com/cuongbtq/botmr-be/internal/export"
	"github.com/cuongbtq/botmr-be/internal/storage"
	"github.com/cuongbtq/botmr-be/internal/worker"
	wdomain "github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/google/uuid"
)

// Listing bounds
const (
	DefaultMeetingLimit = 100
	MaxMeetingLimit     = 500
	DefaultSearchLimit  = 20
	MaxSearchLimit      = 100
)

// ProcessMeetingPayload is the envelope of meeting.process jobs. Audio comes
// from AudioData, from the stored meeting's audio_data, or from audio store
// keys in AudioFiles.
type ProcessMeetingPayload struct {
	MeetingID  string   `json:"meeting_id"`
	AudioData  string   `json:"audio_data,omitempty"`
	AudioFiles []string `json:"audio_files,omitempty"`
}

func (p *ProcessMeetingPayload) Validate() error {
	if strings.TrimSpace(p.MeetingID) == "" {
		return fmt.Errorf("meeting_id is required")
	}
	return nil
}

type MeetingDeps struct {
	Repo        storage.MeetingRepository
	Queue       JobQueue
	Audio       audio.Store
	Transcriber ai.Transcriber
	Summarizer  ai.Summarizer
	Events      events.Emitter
	Logger      *slog.Logger
}

// MeetingService manages meetings and runs the meeting.process pipeline.
type MeetingService struct {
	repo        storage.MeetingRepository
	queue       JobQueue
	audio       audio.Store
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	events      events.Emitter
	logger      *slog.Logger
	now         func() time.Time
}

func NewMeetingService(d MeetingDeps) *MeetingService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &MeetingService{
		repo:        d.Repo,
		queue:       d.Queue,
		audio:       d.Audio,
		transcriber: d.Transcriber,
		summarizer:  d.Summarizer,
		events:      d.Events,
		logger:      d.Logger,
		now:         utcNow,
	}
}

type CreateMeetingInput struct {
	Title              string
	Date               string
	Participants       []string
	AudioData          string
	RecordingSessionID string
}

// CreateMeeting stores a new meeting. A meeting created with audio is
// persisted as processing together with the id of the meeting.process job
// queued for it.
func (s *MeetingService) CreateMeeting(ctx context.Context, in CreateMeetingInput) (*domain.Meeting, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("Meeting title cannot be empty")
	}

	m := s.newMeeting(title, in.Date, in.Participants)
	m.AudioData = in.AudioData
	m.RecordingSessionID = in.RecordingSessionID
	if m.AudioData != "" {
		m.Status = domain.MeetingProcessing
		m.TranscriptionJobID = uuid.New().String()
	}

	if err := s.repo.CreateMeeting(ctx, m); err != nil {
		return nil, domain.WrapService("failed to create meeting", err)
	}

	s.logger.Info("Meeting created",
		slog.String("meeting_id", m.ID),
		slog.Bool("has_audio", m.AudioData != ""),
	)

	if m.AudioData == "" {
		return m, nil
	}

	if err := s.enqueueProcess(ctx, m.TranscriptionJobID, ProcessMeetingPayload{MeetingID: m.ID}); err != nil {
		// no job exists under the stored id
		m.TranscriptionJobID = ""
		s.markError(ctx, m, err)
		return nil, err
	}
	return m, nil
}

// CreateMeetingFromRecording creates the meeting of a stopped recording
// session. When audio keys are given the meeting is queued for processing.
func (s *MeetingService) CreateMeetingFromRecording(ctx context.Context, title, sessionID string, audioFiles []string) (*domain.Meeting, error) {
	m := s.newMeeting(title, "", nil)
	m.RecordingSessionID = sessionID
	if len(audioFiles) > 0 {
		m.Status = domain.MeetingProcessing
		m.TranscriptionJobID = uuid.New().String()
	}

	if err := s.repo.CreateMeeting(ctx, m); err != nil {
		return nil, domain.WrapService("failed to create meeting from recording", err)
	}

	s.logger.Info("Meeting created from recording",
		slog.String("meeting_id", m.ID),
		slog.String("session_id", sessionID),
		slog.Int("audio_files", len(audioFiles)),
	)

	if len(audioFiles) == 0 {
		return m, nil
	}

	if err := s.enqueueProcess(ctx, m.TranscriptionJobID, ProcessMeetingPayload{MeetingID: m.ID, AudioFiles: audioFiles}); err != nil {
		m.TranscriptionJobID = ""
		s.markError(ctx, m, err)
		return m, err
	}
	return m, nil
}

func (s *MeetingService) newMeeting(title, date string, participants []string) *domain.Meeting {
	now := s.now()
	if strings.TrimSpace(date) == "" {
		date = now.Format(domain.MeetingDateLayout)
	}
	if participants == nil {
		participants = []string{}
	}
	return &domain.Meeting{
		ID:           uuid.New().String(),
		Title:        title,
		Date:         date,
		Participants: participants,
		ActionItems:  domain.StringList{},
		Decisions:    domain.StringList{},
		Status:       domain.MeetingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *MeetingService) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	m, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to get meeting", err)
	}
	return m, nil
}

// ListMeetings returns meetings newest first. A zero limit uses the default.
func (s *MeetingService) ListMeetings(ctx context.Context, limit, skip int) ([]domain.Meeting, error) {
	if limit == 0 {
		limit = DefaultMeetingLimit
	}
	if limit < 1 || limit > MaxMeetingLimit {
		return nil, domain.NewValidationError("limit must be between 1 and %d", MaxMeetingLimit)
	}
	if skip < 0 {
		return nil, domain.NewValidationError("skip must not be negative")
	}

	meetings, err := s.repo.ListMeetings(ctx, limit, skip)
	if err != nil {
		return nil, domain.WrapService("failed to list meetings", err)
	}
	return meetings, nil
}

// SearchMeetings matches q against title, summary and transcript, ignoring
// case.
func (s *MeetingService) SearchMeetings(ctx context.Context, q string, limit int) ([]domain.Meeting, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("search query cannot be empty")
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, domain.NewValidationError("limit must be between 1 and %d", MaxSearchLimit)
	}

	meetings, err := s.repo.SearchMeetings(ctx, q, limit)
	if err != nil {
		return nil, domain.WrapService("failed to search meetings", err)
	}
	return meetings, nil
}

func (s *MeetingService) UpdateMeeting(ctx context.Context, id string, patch domain.MeetingPatch) (*domain.Meeting, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.NewValidationError("Meeting title cannot be empty")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.NewValidationError("invalid meeting status %q", *patch.Status)
	}

	m, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to update meeting", err)
	}
	patch.ApplyTo(m)
	m.UpdatedAt = s.now()

	if err := s.repo.UpdateMeeting(ctx, m); err != nil {
		return nil, domain.WrapService("failed to update meeting", err)
	}
	return m, nil
}

func (s *MeetingService) DeleteMeeting(ctx context.Context, id string) error {
	if err := s.repo.DeleteMeeting(ctx, id); err != nil {
		return domain.WrapService("failed to delete meeting", err)
	}
	s.logger.Info("Meeting deleted", slog.String("meeting_id", id))
	return nil
}

// ProcessMeeting queues the stored audio_data of a meeting for processing
// and returns the job id.
func (s *MeetingService) ProcessMeeting(ctx context.Context, id string) (string, error) {
	m, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return "", domain.WrapService("failed to process meeting", err)
	}
	if m.AudioData == "" {
		return "", domain.NewValidationError("No audio data found for processing")
	}
	if m.Status == domain.MeetingProcessing {
		return "", domain.NewConflictError("meeting %s is already being processed", id)
	}

	m.Status = domain.MeetingProcessing
	m.TranscriptionJobID = uuid.New().String()
	m.UpdatedAt = s.now()
	if err := s.repo.UpdateMeeting(ctx, m); err != nil {
		return "", domain.WrapService("failed to process meeting", err)
	}

	if err := s.enqueueProcess(ctx, m.TranscriptionJobID, ProcessMeetingPayload{MeetingID: m.ID}); err != nil {
		m.TranscriptionJobID = ""
		s.markError(ctx, m, err)
		return "", err
	}
	return m.TranscriptionJobID, nil
}

// AddTranscriptionResults stores externally produced results and marks the
// meeting completed.
func (s *MeetingService) AddTranscriptionResults(ctx context.Context, id, transcript string, summary ai.Summary) (*domain.Meeting, error) {
	m, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to add transcription results", err)
	}
	s.applyResults(m, transcript, summary)

	if err := s.repo.UpdateMeeting(ctx, m); err != nil {
		return nil, domain.WrapService("failed to add transcription results", err)
	}
	return m, nil
}

func (s *MeetingService) applyResults(m *domain.Meeting, transcript string, summary ai.Summary) {
	m.Transcript = transcript
	m.Summary = summary.Summary
	m.Decisions = nonNil(summary.Decisions)
	m.ActionItems = nonNil(summary.ActionItems)
	m.Status = domain.MeetingCompleted
	m.UpdatedAt = s.now()
}

func nonNil(items []string) domain.StringList {
	if items == nil {
		return domain.StringList{}
	}
	return items
}

// ExportMeeting renders a meeting as Markdown or HTML.
func (s *MeetingService) ExportMeeting(ctx context.Context, id, format string) ([]byte, export.Format, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}
	m, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return nil, "", domain.WrapService("failed to export meeting", err)
	}
	out, err := export.Render(m, f)
	if err != nil {
		return nil, "", domain.WrapService("failed to export meeting", err)
	}
	return out, f, nil
}

// enqueueProcess queues p under jobID, which the caller has already stored
// on the meeting.
func (s *MeetingService) enqueueProcess(ctx context.Context, jobID string, p ProcessMeetingPayload) error {
	_, err := s.queue.Enqueue(ctx, wdomain.TopicMeetingProcess, p,
		worker.WithPriority(ProcessPriority),
		worker.WithJobID(jobID),
	)
	if err != nil {
		return domain.NewQueueError("failed to queue meeting %s for processing: %v", p.MeetingID, err)
	}
	s.logger.Info("Meeting queued for processing",
		slog.String("meeting_id", p.MeetingID),
		slog.String("job_id", jobID),
	)
	return nil
}

func (s *MeetingService) markError(ctx context.Context, m *domain.Meeting, cause error) {
	m.Status = domain.MeetingError
	m.UpdatedAt = s.now()
	if err := s.repo.UpdateMeeting(ctx, m); err != nil {
		s.logger.Error("Failed to mark meeting as error",
			slog.String("meeting_id", m.ID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Warn("Meeting marked as error",
		slog.String("meeting_id", m.ID),
		slog.Any("cause", cause),
	)
}

type audioPiece struct {
	name string
	data []byte
}

// HandleProcessJob is the meeting.process handler. Failures that cannot
// succeed on retry (missing meeting, undecodable or missing audio) are
// permanent.
func (s *MeetingService) HandleProcessJob(ctx context.Context, job wdomain.Job, p ProcessMeetingPayload) error {
	m, err := s.repo.GetMeeting(ctx, p.MeetingID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return worker.Permanent(err)
		}
		return err
	}
	m.TranscriptionJobID = job.ID

	pieces, err := s.loadAudio(ctx, m, p)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		text, err := s.transcriber.Transcribe(ctx, piece.data, piece.name)
		if err != nil {
			return fmt.Errorf("transcribe %s: %w", piece.name, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	transcript := strings.Join(parts, "\n\n")

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return fmt.Errorf("summarize meeting %s: %w", m.ID, err)
	}

	s.applyResults(m, transcript, summary)
	if err := s.repo.UpdateMeeting(ctx, m); err != nil {
		return err
	}

	s.logger.Info("Meeting processed",
		slog.String("meeting_id", m.ID),
		slog.String("job_id", job.ID),
		slog.Int("audio_pieces", len(pieces)),
		slog.Int("decisions", len(m.Decisions)),
		slog.Int("action_items", len(m.ActionItems)),
	)
	s.emit(ctx, events.MeetingProcessed, map[string]any{
		"meeting_id": m.ID,
		"job_id":     job.ID,
		"status":     string(m.Status),
	})
	return nil
}

func (s *MeetingService) loadAudio(ctx context.Context, m *domain.Meeting, p ProcessMeetingPayload) ([]audioPiece, error) {
	var pieces []audioPiece

	encoded := p.AudioData
	if encoded == "" {
		encoded = m.AudioData
	}
	if encoded != "" {
		data, err := decodeAudio(encoded)
		if err != nil {
			return nil, worker.Permanent(domain.NewValidationError("audio_data is not valid base64: %v", err))
		}
		pieces = append(pieces, audioPiece{name: "meeting-audio.webm", data: data})
	}

	for _, key := range p.AudioFiles {
		if s.audio == nil {
			return nil, worker.Permanent(domain.NewValidationError("audio store is not configured"))
		}
		data, err := s.audio.Get(ctx, key)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) || domain.IsKind(err, domain.KindValidation) {
				return nil, worker.Permanent(err)
			}
			return nil, err
		}
		pieces = append(pieces, audioPiece{name: path.Base(key), data: data})
	}

	if len(pieces) == 0 {
		return nil, worker.Permanent(domain.NewValidationError("No audio data found for processing"))
	}
	return pieces, nil
}

// decodeAudio accepts plain base64 or a data URL.
func decodeAudio(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ";base64,"); i >= 0 {
			encoded = encoded[i+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
}

// ObserveJob marks the meeting as error when its meeting.process job fails
// for good.
func (s *MeetingService) ObserveJob(job wdomain.Job) {
	if job.Topic != wdomain.TopicMeetingProcess || job.Status != wdomain.JobStatusFailed {
		return
	}

	var p ProcessMeetingPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.MeetingID == "" {
		s.logger.Warn("Failed job has no meeting id", slog.String("job_id", job.ID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := s.repo.GetMeeting(ctx, p.MeetingID)
	if err != nil {
		s.logger.Warn("Failed to load meeting of failed job",
			slog.String("job_id", job.ID),
			slog.String("meeting_id", p.MeetingID),
			slog.Any("error", err),
		)
		return
	}
	if m.TranscriptionJobID == "" {
		m.TranscriptionJobID = job.ID
	}
	s.markError(ctx, m, fmt.Errorf("job %s failed: %s", job.ID, job.Error))

	s.emit(ctx, events.MeetingFailed, map[string]any{
		"meeting_id": m.ID,
		"job_id":     job.ID,
		"error":      job.Error,
	})
}

func (s *MeetingService) emit(ctx context.Context, eventType string, data map[string]any) {
	if s.events != nil {
		s.events.Emit(ctx, eventType, data)
	}
}
