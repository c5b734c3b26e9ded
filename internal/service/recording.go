package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/cuongbtq/botmr-be/internal/audio"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/events"
	"github.com/cuongbtq/botmr-be/internal/storage"
	"github.com/google/uuid"
)

// MeetingCreator is what recordings need from the meeting service.
type MeetingCreator interface {
	CreateMeetingFromRecording(ctx context.Context, title, sessionID string, audioFiles []string) (*domain.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

// RecordingOptions holds recording policy.
type RecordingOptions struct {
	UploadPathPrefix  string
	HeartbeatTimeout  time.Duration
	RetentionDays     int
	MaxChunkSize      int64
	AllowedAudioTypes []string
}

type RecordingDeps struct {
	Repo     storage.RecordingRepository
	Meetings MeetingCreator
	Audio    audio.Store
	Events   events.Emitter
	Logger   *slog.Logger
	Options  RecordingOptions
}

// RecordingService drives recording sessions through their lifecycle.
// Mutating calls on one session are serialized.
type RecordingService struct {
	repo     storage.RecordingRepository
	meetings MeetingCreator
	audio    audio.Store
	events   events.Emitter
	logger   *slog.Logger
	opts     RecordingOptions
	locks    *keyedMutex
	now      func() time.Time
}

func NewRecordingService(d RecordingDeps) *RecordingService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Options.UploadPathPrefix == "" {
		d.Options.UploadPathPrefix = "/api/v1/recordings"
	}
	if d.Options.HeartbeatTimeout <= 0 {
		d.Options.HeartbeatTimeout = 5 * time.Minute
	}
	if d.Options.RetentionDays <= 0 {
		d.Options.RetentionDays = 30
	}
	return &RecordingService{
		repo:     d.Repo,
		meetings: d.Meetings,
		audio:    d.Audio,
		events:   d.Events,
		logger:   d.Logger,
		opts:     d.Options,
		locks:    newKeyedMutex(),
		now:      utcNow,
	}
}

type StartRecordingInput struct {
	Mode          domain.RecordingMode
	AllowFallback *bool
	Metadata      map[string]any
	MeetingID     string
}

type StartRecordingResult struct {
	SessionID     string               `json:"sessionId"`
	UploadURLs    []string             `json:"uploadUrls"`
	Status        domain.SessionStatus `json:"status"`
	Mode          domain.RecordingMode `json:"mode"`
	AllowFallback bool                 `json:"allowFallback"`
}

func metaString(meta map[string]any, key string) string {
	v, _ := meta[key].(string)
	return strings.TrimSpace(v)
}

func (s *RecordingService) StartRecording(ctx context.Context, in StartRecordingInput) (*StartRecordingResult, error) {
	deviceID := metaString(in.Metadata, "deviceId")
	if deviceID == "" {
		return nil, domain.NewValidationError("device ID is required")
	}

	mode := in.Mode
	if mode == "" {
		mode = domain.ModeLocal
	}
	if !mode.Valid() {
		return nil, domain.NewValidationError("invalid recording mode %q", mode)
	}

	allowFallback := true
	if in.AllowFallback != nil {
		allowFallback = *in.AllowFallback
	}

	live, err := s.repo.ListSessions(ctx, domain.SessionFilter{
		DeviceID: deviceID,
		Statuses: []domain.SessionStatus{domain.SessionActive, domain.SessionPaused},
	})
	if err != nil {
		return nil, domain.WrapService("failed to start recording", err)
	}
	if len(live) > 0 {
		s.logger.Warn("Device has live recording sessions",
			slog.String("device_id", deviceID),
			slog.Int("live_sessions", len(live)),
		)
	}

	now := s.now()
	session := &domain.RecordingSession{
		ID:            uuid.New().String(),
		SessionID:     uuid.New().String(),
		Mode:          mode,
		DeviceID:      deviceID,
		UserID:        metaString(in.Metadata, "userId"),
		MeetingID:     strings.TrimSpace(in.MeetingID),
		Status:        domain.SessionActive,
		AllowFallback: allowFallback,
		StartedAt:     now,
		AudioFiles:    domain.StringList{},
		Markers:       domain.Markers{},
		Metadata:      in.Metadata,
		LastHeartbeat: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, domain.WrapService("failed to start recording", err)
	}

	uploadURLs := []string{}
	if mode.Uploads() {
		uploadURLs = append(uploadURLs, s.uploadURL(session.SessionID))
	}

	s.logger.Info("Recording started",
		slog.String("session_id", session.SessionID),
		slog.String("device_id", deviceID),
		slog.String("mode", string(mode)),
	)
	s.emit(ctx, events.RecordingStarted, map[string]any{
		"session_id": session.SessionID,
		"device_id":  deviceID,
		"mode":       string(mode),
	})

	return &StartRecordingResult{
		SessionID:     session.SessionID,
		UploadURLs:    uploadURLs,
		Status:        session.Status,
		Mode:          mode,
		AllowFallback: allowFallback,
	}, nil
}

func (s *RecordingService) uploadURL(sessionID string) string {
	return strings.TrimRight(s.opts.UploadPathPrefix, "/") + "/" + sessionID + "/upload/chunk"
}

type HeartbeatInput struct {
	SessionID string
	DeviceID  string
	// ClientTs is the client clock as sent, ISO-8601. Only logged.
	ClientTs  string
	ChunkInfo map[string]any
}

// UpdateHeartbeat refreshes last_heartbeat of a live session.
func (s *RecordingService) UpdateHeartbeat(ctx context.Context, in HeartbeatInput) error {
	_, err := s.transition(ctx, in.SessionID, domain.EventHeartbeat)
	if err != nil {
		return domain.WrapService("failed to update heartbeat", err)
	}

	s.logger.Debug("Heartbeat updated",
		slog.String("session_id", in.SessionID),
		slog.String("client_ts", in.ClientTs),
		slog.Any("chunk_info", in.ChunkInfo),
	)
	return nil
}

func (s *RecordingService) PauseRecording(ctx context.Context, sessionID string) (*domain.RecordingSession, error) {
	session, err := s.transition(ctx, sessionID, domain.EventPause)
	if err != nil {
		return nil, domain.WrapService("failed to pause recording", err)
	}
	s.logger.Info("Recording paused", slog.String("session_id", sessionID))
	return session, nil
}

func (s *RecordingService) ResumeRecording(ctx context.Context, sessionID string) (*domain.RecordingSession, error) {
	session, err := s.transition(ctx, sessionID, domain.EventResume)
	if err != nil {
		return nil, domain.WrapService("failed to resume recording", err)
	}
	s.logger.Info("Recording resumed", slog.String("session_id", sessionID))
	return session, nil
}

// transition applies ev to a session under its lock.
func (s *RecordingService) transition(ctx context.Context, sessionID string, ev domain.SessionEvent) (*domain.RecordingSession, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	from := session.Status
	if err := session.Apply(ev, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSession(ctx, session, from); err != nil {
		return nil, err
	}
	return session, nil
}

type UploadChunkInput struct {
	SessionID   string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadChunkResult struct {
	SessionID      string `json:"sessionId"`
	Key            string `json:"key"`
	UploadedChunks int    `json:"uploadedChunks"`
}

// UploadChunk stores one audio chunk of a live session and records its key.
func (s *RecordingService) UploadChunk(ctx context.Context, in UploadChunkInput) (*UploadChunkResult, error) {
	if err := s.checkAudioType(in.ContentType); err != nil {
		return nil, err
	}
	if s.opts.MaxChunkSize > 0 && in.Size > s.opts.MaxChunkSize {
		return nil, domain.NewValidationError("chunk exceeds the maximum size of %d bytes", s.opts.MaxChunkSize)
	}
	if s.audio == nil {
		return nil, domain.NewProcessingError("failed to upload chunk", errors.New("audio store is not configured"))
	}

	unlock := s.locks.Lock(in.SessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, domain.WrapService("failed to upload chunk", err)
	}
	if !session.Status.Live() {
		return nil, domain.NewConflictError("recording session is %s, cannot accept audio", session.Status).
			WithDetail("status", string(session.Status))
	}
	if !session.Mode.Uploads() && !session.AllowFallback {
		return nil, domain.NewValidationError("recording session %s keeps audio on the device", session.SessionID)
	}

	now := s.now()
	key := audio.ChunkKey(session.SessionID, in.Filename, now)
	if err := s.audio.Put(ctx, key, in.Body, in.ContentType); err != nil {
		return nil, domain.WrapService("failed to upload chunk", err)
	}

	from := session.Status
	session.AudioFiles = append(session.AudioFiles, key)
	session.UpdatedAt = now
	if err := s.repo.UpdateSession(ctx, session, from); err != nil {
		if delErr := s.audio.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned chunk", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, domain.WrapService("failed to upload chunk", err)
	}

	s.logger.Info("Chunk uploaded",
		slog.String("session_id", session.SessionID),
		slog.String("key", key),
		slog.Int("uploaded_chunks", len(session.AudioFiles)),
	)
	return &UploadChunkResult{
		SessionID:      session.SessionID,
		Key:            key,
		UploadedChunks: len(session.AudioFiles),
	}, nil
}

func (s *RecordingService) checkAudioType(contentType string) error {
	if len(s.opts.AllowedAudioTypes) == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(s.opts.AllowedAudioTypes, mediaType) {
		return domain.NewValidationError("unsupported audio type %q", contentType).
			WithDetail("allowed", s.opts.AllowedAudioTypes)
	}
	return nil
}

type StopRecordingInput struct {
	SessionID string
	// CreateMeeting defaults to true when nil.
	CreateMeeting *bool
	FinalStats    map[string]any
}

type StopRecordingResult struct {
	SessionID string               `json:"sessionId"`
	Status    domain.SessionStatus `json:"status"`
	MeetingID string               `json:"meetingId,omitempty"`
	EndedAt   *time.Time           `json:"endedAt"`
	Message   string               `json:"message"`
}

// StopRecording ends a session from any status. Stopping twice is a no-op
// apart from final stats. When asked, the first stop without a linked
// meeting creates one; later stops reuse it.
func (s *RecordingService) StopRecording(ctx context.Context, in StopRecordingInput) (*StopRecordingResult, error) {
	unlock := s.locks.Lock(in.SessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, domain.WrapService("failed to stop recording", err)
	}

	from := session.Status
	if !from.Live() {
		s.logger.Warn("Stopping a session that is not live",
			slog.String("session_id", session.SessionID),
			slog.String("status", string(from)),
		)
	}
	if err := session.Apply(domain.EventStop, s.now()); err != nil {
		return nil, domain.WrapService("failed to stop recording", err)
	}
	if len(in.FinalStats) > 0 {
		session.FinalStats = in.FinalStats
	}
	if err := s.repo.UpdateSession(ctx, session, from); err != nil {
		return nil, domain.WrapService("failed to stop recording", err)
	}

	createMeeting := in.CreateMeeting == nil || *in.CreateMeeting
	if createMeeting && session.MeetingID == "" {
		if err := s.linkMeeting(ctx, session); err != nil {
			return nil, domain.WrapService("failed to create meeting for recording", err)
		}
	}

	s.logger.Info("Recording stopped",
		slog.String("session_id", session.SessionID),
		slog.String("meeting_id", session.MeetingID),
		slog.Int("audio_files", len(session.AudioFiles)),
	)
	if from != domain.SessionStopped {
		s.emit(ctx, events.RecordingStopped, map[string]any{
			"session_id": session.SessionID,
			"meeting_id": session.MeetingID,
		})
	}

	return &StopRecordingResult{
		SessionID: session.SessionID,
		Status:    session.Status,
		MeetingID: session.MeetingID,
		EndedAt:   session.EndedAt,
		Message:   "Recording stopped successfully",
	}, nil
}

// linkMeeting creates the meeting of a stopped session and stores its id
// on the session. A meeting whose processing could not be queued is still
// linked. If the session write fails the meeting is deleted again, so a
// retried stop does not leave a second meeting behind.
func (s *RecordingService) linkMeeting(ctx context.Context, session *domain.RecordingSession) error {
	title := "Meeting " + session.StartedAt.Format("01/02/2006, 15:04:05")
	m, err := s.meetings.CreateMeetingFromRecording(ctx, title, session.SessionID, session.AudioFiles)
	if m == nil {
		return err
	}
	if err != nil {
		s.logger.Warn("Meeting created but processing was not queued",
			slog.String("meeting_id", m.ID),
			slog.Any("error", err),
		)
	}

	session.MeetingID = m.ID
	session.UpdatedAt = s.now()
	if err := s.repo.UpdateSession(ctx, session, domain.SessionStopped); err != nil {
		session.MeetingID = ""
		if delErr := s.meetings.DeleteMeeting(ctx, m.ID); delErr != nil {
			s.logger.Error("Failed to remove unlinked meeting",
				slog.String("meeting_id", m.ID),
				slog.String("session_id", session.SessionID),
				slog.Any("error", delErr),
			)
		}
		return err
	}
	return nil
}

type RecordingStatus struct {
	SessionID       string               `json:"sessionId"`
	Status          domain.SessionStatus `json:"status"`
	Mode            domain.RecordingMode `json:"mode"`
	MeetingID       string               `json:"meetingId,omitempty"`
	UploadedChunks  int                  `json:"uploadedChunks"`
	TranscriptState string               `json:"transcriptState"`
	StartedAt       time.Time            `json:"startedAt"`
	EndedAt         *time.Time           `json:"endedAt"`
	LastHeartbeat   time.Time            `json:"lastHeartbeat"`
	Metadata        map[string]any       `json:"metadata"`
}

func (s *RecordingService) GetRecordingStatus(ctx context.Context, sessionID string) (*RecordingStatus, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domain.WrapService("failed to get recording status", err)
	}

	state := "pending"
	if session.MeetingID != "" && s.meetings != nil {
		m, err := s.meetings.GetMeeting(ctx, session.MeetingID)
		switch {
		case err == nil:
			state = m.TranscriptState()
		case !domain.IsKind(err, domain.KindNotFound):
			s.logger.Warn("Failed to load linked meeting",
				slog.String("session_id", sessionID),
				slog.String("meeting_id", session.MeetingID),
				slog.Any("error", err),
			)
		}
	}

	return &RecordingStatus{
		SessionID:       session.SessionID,
		Status:          session.Status,
		Mode:            session.Mode,
		MeetingID:       session.MeetingID,
		UploadedChunks:  len(session.AudioFiles),
		TranscriptState: state,
		StartedAt:       session.StartedAt,
		EndedAt:         session.EndedAt,
		LastHeartbeat:   session.LastHeartbeat,
		Metadata:        session.Metadata,
	}, nil
}

// CleanupOldSessions deletes finished sessions created more than days ago,
// along with their audio. days <= 0 uses the configured retention.
func (s *RecordingService) CleanupOldSessions(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = s.opts.RetentionDays
	}
	filter := domain.SessionFilter{
		Statuses:      domain.FinishedStatuses(),
		CreatedBefore: s.now().AddDate(0, 0, -days),
	}

	old, err := s.repo.ListSessions(ctx, filter)
	if err != nil {
		return 0, domain.WrapService("failed to clean up sessions", err)
	}
	if len(old) == 0 {
		return 0, nil
	}

	if s.audio != nil {
		for _, session := range old {
			for _, key := range session.AudioFiles {
				if err := s.audio.Delete(ctx, key); err != nil {
					s.logger.Warn("Failed to delete session audio",
						slog.String("session_id", session.SessionID),
						slog.String("key", key),
						slog.Any("error", err),
					)
				}
			}
		}
	}

	deleted, err := s.repo.DeleteSessions(ctx, filter)
	if err != nil {
		return 0, domain.WrapService("failed to clean up sessions", err)
	}

	s.logger.Info("Old recording sessions cleaned up",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", days),
	)
	return deleted, nil
}

// ExpireStaleSessions fails live sessions whose last heartbeat is older
// than the heartbeat timeout.
func (s *RecordingService) ExpireStaleSessions(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.HeartbeatTimeout)
	stale, err := s.repo.ListSessions(ctx, domain.SessionFilter{
		Statuses:        []domain.SessionStatus{domain.SessionActive, domain.SessionPaused},
		HeartbeatBefore: cutoff,
	})
	if err != nil {
		return 0, domain.WrapService("failed to expire sessions", err)
	}

	expired := 0
	for _, candidate := range stale {
		ok, err := s.expire(ctx, candidate.SessionID, cutoff)
		if err != nil {
			s.logger.Warn("Failed to expire session",
				slog.String("session_id", candidate.SessionID),
				slog.Any("error", err),
			)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info("Stale recording sessions expired", slog.Int("expired", expired))
	}
	return expired, nil
}

// expire rechecks a session under its lock, since a heartbeat may have
// arrived after the listing.
func (s *RecordingService) expire(ctx context.Context, sessionID string, cutoff time.Time) (bool, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !session.Status.Live() || !session.LastHeartbeat.Before(cutoff) {
		return false, nil
	}

	from := session.Status
	if err := session.Apply(domain.EventExpire, s.now()); err != nil {
		return false, err
	}
	if err := s.repo.UpdateSession(ctx, session, from); err != nil {
		return false, fmt.Errorf("expire session %s: %w", sessionID, err)
	}

	s.emit(ctx, events.RecordingExpired, map[string]any{
		"session_id":     session.SessionID,
		"device_id":      session.DeviceID,
		"last_heartbeat": session.LastHeartbeat,
	})
	return true, nil
}

func (s *RecordingService) emit(ctx context.Context, eventType string, data map[string]any) {
	if s.events != nil {
		s.events.Emit(ctx, eventType, data)
	}
}
