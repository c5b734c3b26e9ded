package dto

import "github.com/cuongbtq/botmr-be/internal/domain"

type CreateMeetingRequest struct {
	Title              string   `json:"title" binding:"required"`
	Date               string   `json:"date"`
	Participants       []string `json:"participants"`
	AudioData          string   `json:"audio_data"`
	RecordingSessionID string   `json:"recording_session_id"`
}

type UpdateMeetingRequest struct {
	Title        *string               `json:"title"`
	Participants []string              `json:"participants"`
	Transcript   *string               `json:"transcript"`
	Summary      *string               `json:"summary"`
	ActionItems  []string              `json:"action_items"`
	Decisions    []string              `json:"decisions"`
	Status       *domain.MeetingStatus `json:"status"`
}

func (r UpdateMeetingRequest) Patch() domain.MeetingPatch {
	return domain.MeetingPatch{
		Title:        r.Title,
		Participants: r.Participants,
		Transcript:   r.Transcript,
		Summary:      r.Summary,
		ActionItems:  r.ActionItems,
		Decisions:    r.Decisions,
		Status:       r.Status,
	}
}

type ListMeetingsRequest struct {
	Limit int `form:"limit"`
	Skip  int `form:"skip"`
}

type SearchMeetingsRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit"`
}

type ExportMeetingRequest struct {
	Format string `form:"format"`
}

// TranscriptionResultsRequest carries results produced outside the job
// queue, for example by a client-side transcriber.
type TranscriptionResultsRequest struct {
	Transcript  string   `json:"transcript" binding:"required"`
	Summary     string   `json:"summary"`
	Decisions   []string `json:"decisions"`
	ActionItems []string `json:"action_items"`
}

type ProcessMeetingResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}
