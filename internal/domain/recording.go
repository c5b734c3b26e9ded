package domain

import (
	"time"
)

// RecordingMode selects where captured audio ends up.
type RecordingMode string

const (
	ModeLocal        RecordingMode = "local"
	ModeCloud        RecordingMode = "cloud"
	ModeLocalToCloud RecordingMode = "local_to_cloud"
)

func (m RecordingMode) Valid() bool {
	switch m {
	case ModeLocal, ModeCloud, ModeLocalToCloud:
		return true
	}
	return false
}

// Uploads reports whether the client streams chunks to the server in this mode.
func (m RecordingMode) Uploads() bool {
	return m == ModeCloud || m == ModeLocalToCloud
}

// SessionStatus is the state of a recording session.
type SessionStatus string

const (
	SessionActive      SessionStatus = "active"
	SessionPaused      SessionStatus = "paused"
	SessionStopped     SessionStatus = "stopped"
	SessionFailed      SessionStatus = "failed"
	SessionPendingSync SessionStatus = "pending_sync"

	// sessionCompleted is not produced by this service but may exist in
	// rows written by older clients; cleanup treats it as finished.
	sessionCompleted SessionStatus = "completed"
)

// SessionEvent drives a session transition.
type SessionEvent string

const (
	EventHeartbeat SessionEvent = "heartbeat"
	EventPause     SessionEvent = "pause"
	EventResume    SessionEvent = "resume"
	EventStop      SessionEvent = "stop"
	EventExpire    SessionEvent = "expire"
	EventSync      SessionEvent = "sync"
)

var sessionTransitions = map[SessionStatus]map[SessionEvent]SessionStatus{
	SessionActive: {
		EventHeartbeat: SessionActive,
		EventPause:     SessionPaused,
		EventStop:      SessionStopped,
		EventExpire:    SessionFailed,
		EventSync:      SessionPendingSync,
	},
	SessionPaused: {
		EventHeartbeat: SessionPaused,
		EventResume:    SessionActive,
		EventStop:      SessionStopped,
		EventExpire:    SessionFailed,
		EventSync:      SessionPendingSync,
	},
	SessionPendingSync: {
		EventStop:   SessionStopped,
		EventExpire: SessionFailed,
	},
	SessionStopped: {
		EventStop: SessionStopped,
	},
	SessionFailed: {
		EventStop: SessionStopped,
	},
}

// Next returns the status reached by applying ev to s, or a ConflictError
// when the transition is not allowed.
func (s SessionStatus) Next(ev SessionEvent) (SessionStatus, error) {
	if next, ok := sessionTransitions[s][ev]; ok {
		return next, nil
	}
	if ev == EventHeartbeat {
		return s, NewConflictError("recording session is %s, cannot update heartbeat", s).
			WithDetail("status", string(s))
	}
	return s, NewConflictError("cannot %s recording session in status %s", ev, s).
		WithDetail("status", string(s))
}

// Live reports whether the session still accepts heartbeats and chunks.
func (s SessionStatus) Live() bool {
	return s == SessionActive || s == SessionPaused
}

// FinishedStatuses are removed by the cleanup sweep once old enough.
func FinishedStatuses() []SessionStatus {
	return []SessionStatus{SessionStopped, SessionFailed, sessionCompleted}
}

// RecordingSession tracks one device's capture session.
type RecordingSession struct {
	ID            string        `db:"id" json:"id"`
	SessionID     string        `db:"session_id" json:"session_id"`
	Mode          RecordingMode `db:"mode" json:"mode"`
	DeviceID      string        `db:"device_id" json:"device_id"`
	UserID        string        `db:"user_id" json:"user_id,omitempty"`
	MeetingID     string        `db:"meeting_id" json:"meeting_id,omitempty"`
	Status        SessionStatus `db:"status" json:"status"`
	AllowFallback bool          `db:"allow_fallback" json:"allow_fallback"`
	StartedAt     time.Time     `db:"started_at" json:"started_at"`
	EndedAt       *time.Time    `db:"ended_at" json:"ended_at"`
	AudioFiles    StringList    `db:"audio_files" json:"audio_files"`
	Markers       Markers       `db:"markers" json:"markers"`
	Metadata      JSONMap       `db:"metadata" json:"metadata"`
	LastHeartbeat time.Time     `db:"last_heartbeat" json:"last_heartbeat"`
	FinalStats    JSONMap       `db:"final_stats" json:"final_stats"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Apply moves the session through ev at time now. It enforces the
// transition table, keeps last_heartbeat moving forward and sets ended_at
// only the first time the session ends.
func (s *RecordingSession) Apply(ev SessionEvent, now time.Time) error {
	next, err := s.Status.Next(ev)
	if err != nil {
		return err
	}

	switch ev {
	case EventHeartbeat:
		if !now.After(s.LastHeartbeat) {
			now = s.LastHeartbeat.Add(time.Microsecond)
		}
		s.LastHeartbeat = now
	case EventStop, EventExpire:
		if s.EndedAt == nil {
			ended := now
			s.EndedAt = &ended
		}
	}

	s.Status = next
	s.UpdatedAt = now
	return nil
}

// SessionFilter narrows repository listings.
type SessionFilter struct {
	DeviceID        string
	Statuses        []SessionStatus
	CreatedBefore   time.Time
	HeartbeatBefore time.Time
	Limit           int
}
