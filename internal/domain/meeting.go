package domain

import (
	"strings"
	"time"
)

// MeetingStatus tracks the processing state of a meeting.
type MeetingStatus string

const (
	MeetingPending    MeetingStatus = "pending"
	MeetingProcessing MeetingStatus = "processing"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingError      MeetingStatus = "error"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingPending, MeetingProcessing, MeetingCompleted, MeetingError:
		return true
	}
	return false
}

// MeetingDateLayout is the display format of Meeting.Date.
const MeetingDateLayout = "2006-01-02 15:04"

// Meeting is a recorded or imported meeting with its AI-derived results.
type Meeting struct {
	ID                 string        `db:"id" json:"id"`
	Title              string        `db:"title" json:"title"`
	Date               string        `db:"date" json:"date"`
	Participants       StringList    `db:"participants" json:"participants"`
	AudioData          string        `db:"audio_data" json:"audio_data,omitempty"`
	Transcript         string        `db:"transcript" json:"transcript"`
	Summary            string        `db:"summary" json:"summary"`
	ActionItems        StringList    `db:"action_items" json:"action_items"`
	Decisions          StringList    `db:"decisions" json:"decisions"`
	Status             MeetingStatus `db:"status" json:"status"`
	RecordingSessionID string        `db:"recording_session_id" json:"recording_session_id,omitempty"`
	TranscriptionJobID string        `db:"transcription_job_id" json:"transcription_job_id,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// MeetingPatch carries the fields of a partial update. Nil means unchanged.
type MeetingPatch struct {
	Title        *string
	Participants []string
	Transcript   *string
	Summary      *string
	ActionItems  []string
	Decisions    []string
	Status       *MeetingStatus
}

// Empty reports whether the patch changes nothing.
func (p MeetingPatch) Empty() bool {
	return p.Title == nil && p.Participants == nil && p.Transcript == nil &&
		p.Summary == nil && p.ActionItems == nil && p.Decisions == nil && p.Status == nil
}

// ApplyTo copies the set fields onto m.
func (p MeetingPatch) ApplyTo(m *Meeting) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Participants != nil {
		m.Participants = p.Participants
	}
	if p.Transcript != nil {
		m.Transcript = *p.Transcript
	}
	if p.Summary != nil {
		m.Summary = *p.Summary
	}
	if p.ActionItems != nil {
		m.ActionItems = p.ActionItems
	}
	if p.Decisions != nil {
		m.Decisions = p.Decisions
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
}

// Matches reports whether q occurs in the title, summary or transcript,
// ignoring case.
func (m *Meeting) Matches(q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(m.Title), q) ||
		strings.Contains(strings.ToLower(m.Summary), q) ||
		strings.Contains(strings.ToLower(m.Transcript), q)
}

// TranscriptState summarizes the meeting status for recording status views.
func (m *Meeting) TranscriptState() string {
	if m == nil {
		return "pending"
	}
	switch m.Status {
	case MeetingCompleted:
		return "completed"
	case MeetingProcessing:
		return "processing"
	case MeetingError:
		return "error"
	}
	return "pending"
}
