package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MeetingsOrderAndCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateMeeting(ctx, &domain.Meeting{
			ID:           id,
			Title:        "Meeting " + id,
			Participants: domain.StringList{"alice"},
			CreatedAt:    now.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := s.ListMeetings(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	list, err = s.ListMeetings(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := s.GetMeeting(ctx, "a")
	require.NoError(t, err)
	got.Participants[0] = "mallory"

	again, err := s.GetMeeting(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Participants[0])

	found, err := s.SearchMeetings(ctx, "meeting B", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].ID)

	assert.True(t, domain.IsKind(s.UpdateMeeting(ctx, &domain.Meeting{ID: "zzz"}), domain.KindNotFound))
	require.NoError(t, s.DeleteMeeting(ctx, "a"))
	assert.True(t, domain.IsKind(s.DeleteMeeting(ctx, "a"), domain.KindNotFound))
}

func TestStore_UpdateSessionCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, &domain.RecordingSession{
		ID: "1", SessionID: "s1", Status: domain.SessionActive, CreatedAt: now, LastHeartbeat: now,
	}))

	first, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	second, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, first.Apply(domain.EventStop, now))
	require.NoError(t, s.UpdateSession(ctx, first, domain.SessionActive))

	require.NoError(t, second.Apply(domain.EventPause, now))
	err = s.UpdateSession(ctx, second, domain.SessionActive)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	stored, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, stored.Status)

	err = s.UpdateSession(ctx, &domain.RecordingSession{SessionID: "nope"}, domain.SessionActive)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestStore_SessionFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	old := now.Add(-72 * time.Hour)

	sessions := []domain.RecordingSession{
		{ID: "1", SessionID: "s1", DeviceID: "d1", Status: domain.SessionActive, CreatedAt: old, LastHeartbeat: old},
		{ID: "2", SessionID: "s2", DeviceID: "d1", Status: domain.SessionStopped, CreatedAt: old, LastHeartbeat: old},
		{ID: "3", SessionID: "s3", DeviceID: "d2", Status: domain.SessionActive, CreatedAt: now, LastHeartbeat: now},
	}
	for i := range sessions {
		require.NoError(t, s.CreateSession(ctx, &sessions[i]))
	}

	tests := []struct {
		name   string
		filter domain.SessionFilter
		want   []string
	}{
		{"all", domain.SessionFilter{}, []string{"s3", "s2", "s1"}},
		{"by device", domain.SessionFilter{DeviceID: "d1"}, []string{"s2", "s1"}},
		{"live", domain.SessionFilter{Statuses: []domain.SessionStatus{domain.SessionActive}}, []string{"s3", "s1"}},
		{"stale heartbeat", domain.SessionFilter{
			Statuses:        []domain.SessionStatus{domain.SessionActive},
			HeartbeatBefore: now.Add(-time.Hour),
		}, []string{"s1"}},
		{"limit", domain.SessionFilter{Limit: 1}, []string{"s3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListSessions(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, rs := range got {
				ids = append(ids, rs.SessionID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	n, err := s.DeleteSessions(ctx, domain.SessionFilter{
		Statuses:      domain.FinishedStatuses(),
		CreatedBefore: now.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetSettings(ctx)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	us := domain.DefaultSettings()
	require.NoError(t, s.SaveSettings(ctx, &us))

	*us.RetentionPolicyDays = 7
	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, *got.RetentionPolicyDays)
}

func TestStore_TasksAndMessages(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateTask(ctx, &domain.Task{ID: "t1", MeetingID: "m1", CreatedAt: now}))
	require.NoError(t, s.CreateTask(ctx, &domain.Task{ID: "t2", MeetingID: "m2", CreatedAt: now.Add(time.Second)}))

	tasks, err := s.ListTasks(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)

	tasks, err = s.ListTasks(ctx, "m1", 100)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, s.CreateMessage(ctx, &domain.Message{ID: "x", MeetingID: "m1", CreatedAt: now}))
	msgs, err := s.ListMessages(ctx, "m1", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	require.NoError(t, s.DeleteMessage(ctx, "x"))
	_, err = s.GetMessage(ctx, "x")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
