package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/ai"
	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/gin-gonic/gin"
)

// MeetingHandler handles meeting requests
type MeetingHandler struct {
	logger   *slog.Logger
	meetings *service.MeetingService
}

func NewMeetingHandler(deps *Dependencies) *MeetingHandler {
	return &MeetingHandler{
		logger:   deps.Logger,
		meetings: deps.Meetings,
	}
}

// ListMeetings handles GET /meetings?limit=&skip=
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	var req dto.ListMeetingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, h.logger, "query parameters", err)
		return
	}

	meetings, err := h.meetings.ListMeetings(c.Request.Context(), req.Limit, req.Skip)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, meetings)
}

// CreateMeeting handles POST /meetings
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	var req dto.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	m, err := h.meetings.CreateMeeting(c.Request.Context(), service.CreateMeetingInput{
		Title:              req.Title,
		Date:               req.Date,
		Participants:       req.Participants,
		AudioData:          req.AudioData,
		RecordingSessionID: req.RecordingSessionID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// SearchMeetings handles GET /meetings/search?q=&limit=
func (h *MeetingHandler) SearchMeetings(c *gin.Context) {
	var req dto.SearchMeetingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, h.logger, "query parameters", err)
		return
	}

	meetings, err := h.meetings.SearchMeetings(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Meeting search completed",
		slog.String("query", req.Query),
		slog.Int("results", len(meetings)),
	)
	c.JSON(http.StatusOK, meetings)
}

// GetMeeting handles GET /meetings/:meeting_id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	m, err := h.meetings.GetMeeting(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMeeting handles PATCH /meetings/:meeting_id
func (h *MeetingHandler) UpdateMeeting(c *gin.Context) {
	var req dto.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	m, err := h.meetings.UpdateMeeting(c.Request.Context(), c.Param("meeting_id"), req.Patch())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMeeting handles DELETE /meetings/:meeting_id
func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	if err := h.meetings.DeleteMeeting(c.Request.Context(), c.Param("meeting_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.BaseResponse{Success: true, Message: "Meeting deleted successfully"})
}

// ProcessMeeting handles POST /meetings/:meeting_id/process
func (h *MeetingHandler) ProcessMeeting(c *gin.Context) {
	jobID, err := h.meetings.ProcessMeeting(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.ProcessMeetingResponse{
		Message: "Meeting processing started",
		JobID:   jobID,
	})
}

// AddResults handles POST /meetings/:meeting_id/results
func (h *MeetingHandler) AddResults(c *gin.Context) {
	var req dto.TranscriptionResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	m, err := h.meetings.AddTranscriptionResults(c.Request.Context(), c.Param("meeting_id"), req.Transcript, ai.Summary{
		Summary:     req.Summary,
		Decisions:   req.Decisions,
		ActionItems: req.ActionItems,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ExportMeeting handles GET /meetings/:meeting_id/export?format=md|html
func (h *MeetingHandler) ExportMeeting(c *gin.Context) {
	var req dto.ExportMeetingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, h.logger, "query parameters", err)
		return
	}

	id := c.Param("meeting_id")
	body, format, err := h.meetings.ExportMeeting(c.Request.Context(), id, req.Format)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="meeting-%s.%s"`, id, format.Extension()))
	c.Data(http.StatusOK, format.ContentType(), body)
}
