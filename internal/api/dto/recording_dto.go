package dto

type StartRecordingRequest struct {
	Mode          string         `json:"mode"`
	AllowFallback *bool          `json:"allow_fallback"`
	Metadata      map[string]any `json:"metadata"`
	MeetingID     string         `json:"meeting_id"`
}

type HeartbeatRequest struct {
	SessionID string         `json:"session_id" binding:"required"`
	DeviceID  string         `json:"device_id"`
	Ts        string         `json:"ts"`
	ChunkInfo map[string]any `json:"chunk_info"`
}

type StopRecordingRequest struct {
	SessionID     string         `json:"session_id" binding:"required"`
	Final         bool           `json:"final"`
	Stats         map[string]any `json:"stats"`
	CreateMeeting *bool          `json:"create_meeting"`
}

type HeartbeatResponse struct {
	OK bool `json:"ok"`
}
