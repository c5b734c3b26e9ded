package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/shared/database"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	client, err := database.NewClient(&database.Config{
		Driver: database.DriverSQLite,
		Path:   ":memory:",
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, Migrate(context.Background(), client.GetDB().DB, client.Driver(), logger.NewNop()))
	return New(client)
}

func newSession(id string, status domain.SessionStatus, created time.Time) *domain.RecordingSession {
	return &domain.RecordingSession{
		ID:            "id-" + id,
		SessionID:     id,
		Mode:          domain.ModeCloud,
		DeviceID:      "device-1",
		Status:        status,
		AllowFallback: true,
		StartedAt:     created,
		AudioFiles:    domain.StringList{},
		Markers:       domain.Markers{},
		Metadata:      domain.JSONMap{"deviceId": "device-1"},
		LastHeartbeat: created,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestMigrate_Status(t *testing.T) {
	s := newTestStore(t)

	infos, err := Status(context.Background(), s.db.DB, database.DriverSQLite)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].Version)
	assert.True(t, infos[0].Applied)

	// a second run is a no-op
	require.NoError(t, Migrate(context.Background(), s.db.DB, database.DriverSQLite, logger.NewNop()))
}

func TestStore_Meetings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	m := &domain.Meeting{
		ID:           "m1",
		Title:        "Weekly Sync",
		Date:         now.Format(domain.MeetingDateLayout),
		Participants: domain.StringList{"alice", "bob"},
		Transcript:   "we discussed the 50% budget cut",
		Status:       domain.MeetingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateMeeting(ctx, m))
	require.NoError(t, s.CreateMeeting(ctx, &domain.Meeting{
		ID: "m2", Title: "Retro", Status: domain.MeetingPending,
		CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
	}))

	got, err := s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Weekly Sync", got.Title)
	assert.Equal(t, []string{"alice", "bob"}, []string(got.Participants))
	assert.Equal(t, []string{}, []string(got.ActionItems))
	assert.WithinDuration(t, now, got.CreatedAt, time.Millisecond)

	_, err = s.GetMeeting(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	list, err := s.ListMeetings(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m2", list[0].ID)

	list, err = s.ListMeetings(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ID)

	found, err := s.SearchMeetings(ctx, "WEEKLY", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = s.SearchMeetings(ctx, "50%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "m1", found[0].ID)

	found, err = s.SearchMeetings(ctx, "%", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	got.Summary = "budget"
	got.Status = domain.MeetingCompleted
	require.NoError(t, s.UpdateMeeting(ctx, got))
	got, err = s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingCompleted, got.Status)
	assert.Equal(t, "budget", got.Summary)

	err = s.UpdateMeeting(ctx, &domain.Meeting{ID: "missing"})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	require.NoError(t, s.DeleteMeeting(ctx, "m1"))
	err = s.DeleteMeeting(ctx, "m1")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	rs := newSession("s1", domain.SessionActive, now)
	require.NoError(t, s.CreateSession(ctx, rs))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCloud, got.Mode)
	assert.Equal(t, "device-1", got.Metadata["deviceId"])
	assert.Nil(t, got.EndedAt)
	assert.Nil(t, got.FinalStats)

	require.NoError(t, got.Apply(domain.EventStop, now.Add(time.Minute)))
	got.FinalStats = domain.JSONMap{"chunks": float64(3)}
	require.NoError(t, s.UpdateSession(ctx, got, domain.SessionActive))

	stored, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, stored.Status)
	require.NotNil(t, stored.EndedAt)
	assert.WithinDuration(t, now.Add(time.Minute), *stored.EndedAt, time.Millisecond)
	assert.Equal(t, float64(3), stored.FinalStats["chunks"])

	// stale writer still expects active
	err = s.UpdateSession(ctx, got, domain.SessionActive)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	err = s.UpdateSession(ctx, newSession("missing", domain.SessionActive, now), domain.SessionActive)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = s.GetSession(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestStore_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	require.NoError(t, s.CreateSession(ctx, newSession("old-stopped", domain.SessionStopped, old)))
	require.NoError(t, s.CreateSession(ctx, newSession("old-active", domain.SessionActive, old)))
	require.NoError(t, s.CreateSession(ctx, newSession("new-stopped", domain.SessionStopped, now)))

	live, err := s.ListSessions(ctx, domain.SessionFilter{
		DeviceID: "device-1",
		Statuses: []domain.SessionStatus{domain.SessionActive, domain.SessionPaused},
	})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "old-active", live[0].SessionID)

	stale, err := s.ListSessions(ctx, domain.SessionFilter{
		Statuses:        []domain.SessionStatus{domain.SessionActive},
		HeartbeatBefore: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	limited, err := s.ListSessions(ctx, domain.SessionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := s.DeleteSessions(ctx, domain.SessionFilter{
		Statuses:      domain.FinishedStatuses(),
		CreatedBefore: now.Add(-30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSession(ctx, "old-stopped")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = s.GetSession(ctx, "old-active")
	assert.NoError(t, err)
}

func TestStore_Tasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()
	due := now.Add(48 * time.Hour)

	require.NoError(t, s.CreateTask(ctx, &domain.Task{
		ID: "t1", MeetingID: "m1", Title: "Draft plan",
		Priority: domain.TaskPriorityHigh, Status: domain.TaskPending,
		DueDate: &due, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.CreateTask(ctx, &domain.Task{
		ID: "t2", MeetingID: "m2", Title: "Book room",
		Priority: domain.TaskPriorityLow, Status: domain.TaskPending,
		CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
	}))

	got, err := s.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.WithinDuration(t, due, *got.DueDate, time.Millisecond)

	all, err := s.ListTasks(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].ID)

	forMeeting, err := s.ListTasks(ctx, "m1", 100)
	require.NoError(t, err)
	require.Len(t, forMeeting, 1)

	got.Status = domain.TaskCompleted
	require.NoError(t, s.UpdateTask(ctx, got))
	got, err = s.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, got.Status)

	require.NoError(t, s.DeleteTask(ctx, "t1"))
	_, err = s.GetTask(ctx, "t1")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.True(t, domain.IsKind(s.DeleteTask(ctx, "t1"), domain.KindNotFound))
}

func TestStore_Messages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateMessage(ctx, &domain.Message{
		ID: "msg1", MeetingID: "m1", Content: "ship it",
		Type: domain.MessageDecision, CreatedAt: now, UpdatedAt: now,
	}))

	got, err := s.GetMessage(ctx, "msg1")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageDecision, got.Type)

	list, err := s.ListMessages(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.DeleteMessage(ctx, "msg1"))
	assert.True(t, domain.IsKind(s.DeleteMessage(ctx, "msg1"), domain.KindNotFound))
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetSettings(ctx)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	us := domain.DefaultSettings()
	require.NoError(t, s.SaveSettings(ctx, &us))

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", got.PreferredLanguage)
	require.NotNil(t, got.RetentionPolicyDays)
	assert.Equal(t, 30, *got.RetentionPolicyDays)
	assert.Nil(t, got.AutoDeleteDays)

	got.PreferredLanguage = "vi"
	got.PrivacyMode = true
	require.NoError(t, s.SaveSettings(ctx, got))

	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vi", got.PreferredLanguage)
	assert.True(t, got.PrivacyMode)
	assert.Equal(t, domain.SettingsID, got.ID)
}
