package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/events"
	"github.com/cuongbtq/botmr-be/internal/storage"
	wdomain "github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func (f *fixture) start(t *testing.T, mode domain.RecordingMode) string {
	t.Helper()
	res, err := f.recordings.StartRecording(context.Background(), StartRecordingInput{
		Mode:     mode,
		Metadata: map[string]any{"deviceId": "device-1", "userId": "user-1"},
	})
	require.NoError(t, err)
	return res.SessionID
}

func TestStartRecording_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      StartRecordingInput
		wantMsg string
	}{
		{
			name:    "missing device id",
			in:      StartRecordingInput{Metadata: map[string]any{"userId": "u1"}},
			wantMsg: "device ID is required",
		},
		{
			name:    "blank device id",
			in:      StartRecordingInput{Metadata: map[string]any{"deviceId": "  "}},
			wantMsg: "device ID is required",
		},
		{
			name:    "unknown mode",
			in:      StartRecordingInput{Mode: "tape", Metadata: map[string]any{"deviceId": "d1"}},
			wantMsg: "invalid recording mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.recordings.StartRecording(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStartRecording(t *testing.T) {
	tests := []struct {
		name        string
		mode        domain.RecordingMode
		wantMode    domain.RecordingMode
		wantUploads bool
	}{
		{"defaults to local", "", domain.ModeLocal, false},
		{"cloud gets upload url", domain.ModeCloud, domain.ModeCloud, true},
		{"local to cloud gets upload url", domain.ModeLocalToCloud, domain.ModeLocalToCloud, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res, err := f.recordings.StartRecording(context.Background(), StartRecordingInput{
				Mode:     tt.mode,
				Metadata: map[string]any{"deviceId": "device-1", "userId": "user-1"},
			})
			require.NoError(t, err)

			assert.NotEmpty(t, res.SessionID)
			assert.Equal(t, domain.SessionActive, res.Status)
			assert.Equal(t, tt.wantMode, res.Mode)
			assert.True(t, res.AllowFallback)
			if tt.wantUploads {
				assert.Equal(t, []string{"/api/v1/recordings/" + res.SessionID + "/upload/chunk"}, res.UploadURLs)
			} else {
				assert.Empty(t, res.UploadURLs)
			}

			session, err := f.store.GetSession(context.Background(), res.SessionID)
			require.NoError(t, err)
			assert.Equal(t, "device-1", session.DeviceID)
			assert.Equal(t, "user-1", session.UserID)
			assert.Equal(t, testStart, session.StartedAt)
			assert.Equal(t, []string{events.RecordingStarted}, f.events.types())
		})
	}
}

func TestStartRecording_SameDeviceTwice(t *testing.T) {
	f := newFixture(t)
	first := f.start(t, domain.ModeLocal)
	second := f.start(t, domain.ModeLocal)
	assert.NotEqual(t, first, second)
}

func TestUpdateHeartbeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	f.clock.Advance(30 * time.Second)
	require.NoError(t, f.recordings.UpdateHeartbeat(ctx, HeartbeatInput{SessionID: sid, ChunkInfo: map[string]any{"index": 1}}))

	session, err := f.store.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(30*time.Second), session.LastHeartbeat)
	assert.Equal(t, domain.SessionActive, session.Status)

	_, err = f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid, CreateMeeting: boolPtr(false)})
	require.NoError(t, err)

	err = f.recordings.UpdateHeartbeat(ctx, HeartbeatInput{SessionID: sid})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Contains(t, err.Error(), "recording session is stopped, cannot update heartbeat")

	err = f.recordings.UpdateHeartbeat(ctx, HeartbeatInput{SessionID: "missing"})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	session, err := f.recordings.PauseRecording(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, session.Status)

	_, err = f.recordings.PauseRecording(ctx, sid)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	require.NoError(t, f.recordings.UpdateHeartbeat(ctx, HeartbeatInput{SessionID: sid}))
	status, err := f.recordings.GetRecordingStatus(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, status.Status)

	session, err = f.recordings.ResumeRecording(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, session.Status)

	_, err = f.recordings.ResumeRecording(ctx, sid)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestStopRecording_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	f.clock.Advance(time.Minute)
	first, err := f.recordings.StopRecording(ctx, StopRecordingInput{
		SessionID:     sid,
		CreateMeeting: boolPtr(false),
		FinalStats:    map[string]any{"duration": 60},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, first.Status)
	assert.Equal(t, "Recording stopped successfully", first.Message)
	require.NotNil(t, first.EndedAt)

	f.clock.Advance(time.Hour)
	second, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid, CreateMeeting: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, second.Status)
	assert.Equal(t, *first.EndedAt, *second.EndedAt)
	assert.Empty(t, second.MeetingID)

	session, err := f.store.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.EqualValues(t, 60, session.FinalStats["duration"])
	assert.Equal(t, 1, f.events.count(events.RecordingStopped))
}

func TestStopRecording_CreatesOneMeeting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	first, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid})
	require.NoError(t, err)
	require.NotEmpty(t, first.MeetingID)

	m, err := f.meetings.GetMeeting(ctx, first.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, "Meeting 03/01/2025, 10:00:00", m.Title)
	assert.Equal(t, sid, m.RecordingSessionID)
	assert.Equal(t, domain.MeetingPending, m.Status)
	assert.Empty(t, f.queue.enqueued())

	second, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, first.MeetingID, second.MeetingID)

	all, err := f.meetings.ListMeetings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStopRecording_ConcurrentStopsCreateOneMeeting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid})
			errs[i] = err
			if err == nil {
				ids[i] = res.MeetingID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	all, err := f.meetings.ListMeetings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 0, f.recordings.locks.size())
}

func TestStopRecording_WithAudioQueuesProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeCloud)

	up, err := f.recordings.UploadChunk(ctx, UploadChunkInput{
		SessionID:   sid,
		Filename:    "part-1.webm",
		ContentType: "audio/webm;codecs=opus",
		Size:        5,
		Body:        strings.NewReader("hello"),
	})
	require.NoError(t, err)

	res, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid})
	require.NoError(t, err)

	m, err := f.meetings.GetMeeting(ctx, res.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingProcessing, m.Status)

	jobs := f.queue.enqueued()
	require.Len(t, jobs, 1)
	assert.Equal(t, m.TranscriptionJobID, jobs[0].id)
	assert.Equal(t, wdomain.TopicMeetingProcess, jobs[0].topic)
	assert.Equal(t, res.MeetingID, jobs[0].payload.MeetingID)
	assert.Equal(t, []string{up.Key}, jobs[0].payload.AudioFiles)
}

// linkFailingRepo fails the session write that stores a meeting id.
type linkFailingRepo struct {
	storage.RecordingRepository
	mu   sync.Mutex
	fail bool
}

func (r *linkFailingRepo) UpdateSession(ctx context.Context, s *domain.RecordingSession, from domain.SessionStatus) error {
	r.mu.Lock()
	fail := r.fail
	r.mu.Unlock()
	if fail && s.MeetingID != "" {
		return domain.NewStorageError("update session", errors.New("disk full"))
	}
	return r.RecordingRepository.UpdateSession(ctx, s, from)
}

func (r *linkFailingRepo) setFail(v bool) {
	r.mu.Lock()
	r.fail = v
	r.mu.Unlock()
}

func TestStopRecording_LinkFailureRemovesMeeting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := &linkFailingRepo{RecordingRepository: f.store, fail: true}
	svc := NewRecordingService(RecordingDeps{
		Repo:     repo,
		Meetings: f.meetings,
		Audio:    f.audio,
		Logger:   logger.NewNop(),
	})
	svc.now = f.clock.Now

	started, err := svc.StartRecording(ctx, StartRecordingInput{
		Mode:     domain.ModeLocal,
		Metadata: map[string]any{"deviceId": "device-1"},
	})
	require.NoError(t, err)

	_, err = svc.StopRecording(ctx, StopRecordingInput{SessionID: started.SessionID})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindProcessing))

	all, err := f.meetings.ListMeetings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	repo.setFail(false)
	res, err := svc.StopRecording(ctx, StopRecordingInput{SessionID: started.SessionID})
	require.NoError(t, err)
	require.NotEmpty(t, res.MeetingID)

	all, err = f.meetings.ListMeetings(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, res.MeetingID, all[0].ID)
}

func TestStopRecording_MissingSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.recordings.StopRecording(context.Background(), StopRecordingInput{SessionID: "nope"})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestUploadChunk(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the chunk", func(t *testing.T) {
		f := newFixture(t)
		sid := f.start(t, domain.ModeCloud)

		res, err := f.recordings.UploadChunk(ctx, UploadChunkInput{
			SessionID: sid, Filename: "a.wav", ContentType: "audio/wav", Size: 3, Body: strings.NewReader("abc"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.UploadedChunks)
		assert.True(t, strings.HasPrefix(res.Key, "recordings/"+sid+"/"))

		data, err := f.audio.Get(ctx, res.Key)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(data))

		status, err := f.recordings.GetRecordingStatus(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, 1, status.UploadedChunks)
	})

	rejects := []struct {
		name        string
		mode        domain.RecordingMode
		fallback    bool
		stopFirst   bool
		contentType string
		size        int64
		kind        domain.Kind
	}{
		{"unsupported type", domain.ModeCloud, true, false, "text/plain", 3, domain.KindValidation},
		{"malformed type", domain.ModeCloud, true, false, ";;", 3, domain.KindValidation},
		{"too large", domain.ModeCloud, true, false, "audio/wav", 4096, domain.KindValidation},
		{"stopped session", domain.ModeCloud, true, true, "audio/wav", 3, domain.KindConflict},
		{"local without fallback", domain.ModeLocal, false, false, "audio/wav", 3, domain.KindValidation},
	}

	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res, err := f.recordings.StartRecording(ctx, StartRecordingInput{
				Mode:          tt.mode,
				AllowFallback: boolPtr(tt.fallback),
				Metadata:      map[string]any{"deviceId": "d1"},
			})
			require.NoError(t, err)
			if tt.stopFirst {
				_, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: res.SessionID, CreateMeeting: boolPtr(false)})
				require.NoError(t, err)
			}

			_, err = f.recordings.UploadChunk(ctx, UploadChunkInput{
				SessionID: res.SessionID, Filename: "a", ContentType: tt.contentType, Size: tt.size, Body: strings.NewReader("abc"),
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestGetRecordingStatus_TranscriptState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sid := f.start(t, domain.ModeLocal)

	status, err := f.recordings.GetRecordingStatus(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "pending", status.TranscriptState)
	assert.Equal(t, "device-1", status.Metadata["deviceId"])

	stop, err := f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: sid})
	require.NoError(t, err)

	_, err = f.meetings.AddTranscriptionResults(ctx, stop.MeetingID, "Speaker: hi", sampleSummary)
	require.NoError(t, err)

	status, err = f.recordings.GetRecordingStatus(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.TranscriptState)
	assert.Equal(t, stop.MeetingID, status.MeetingID)
	assert.NotNil(t, status.EndedAt)

	_, err = f.recordings.GetRecordingStatus(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestExpireStaleSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stale := f.start(t, domain.ModeLocal)
	fresh := f.start(t, domain.ModeLocal)

	f.clock.Advance(4 * time.Minute)
	require.NoError(t, f.recordings.UpdateHeartbeat(ctx, HeartbeatInput{SessionID: fresh}))
	f.clock.Advance(2 * time.Minute)

	n, err := f.recordings.ExpireStaleSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	session, err := f.store.GetSession(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFailed, session.Status)
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, testStart.Add(6*time.Minute), *session.EndedAt)

	session, err = f.store.GetSession(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, session.Status)
	assert.Equal(t, 1, f.events.count(events.RecordingExpired))

	n, err = f.recordings.ExpireStaleSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCleanupOldSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old := f.start(t, domain.ModeCloud)
	up, err := f.recordings.UploadChunk(ctx, UploadChunkInput{
		SessionID: old, Filename: "a.wav", ContentType: "audio/wav", Size: 3, Body: strings.NewReader("abc"),
	})
	require.NoError(t, err)
	_, err = f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: old, CreateMeeting: boolPtr(false)})
	require.NoError(t, err)

	live := f.start(t, domain.ModeLocal)

	f.clock.Advance(31 * 24 * time.Hour)
	recent := f.start(t, domain.ModeLocal)
	_, err = f.recordings.StopRecording(ctx, StopRecordingInput{SessionID: recent, CreateMeeting: boolPtr(false)})
	require.NoError(t, err)

	n, err := f.recordings.CleanupOldSessions(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.store.GetSession(ctx, old)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.audio.Get(ctx, up.Key)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	for _, sid := range []string{live, recent} {
		_, err := f.store.GetSession(ctx, sid)
		assert.NoError(t, err)
	}

	n, err = f.recordings.CleanupOldSessions(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
