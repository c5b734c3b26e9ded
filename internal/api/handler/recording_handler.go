package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/gin-gonic/gin"
)

// chunkFormField is the multipart field holding an uploaded audio chunk.
const chunkFormField = "file"

// RecordingHandler handles recording session requests
type RecordingHandler struct {
	logger        *slog.Logger
	recordings    *service.RecordingService
	maxUploadSize int64
}

func NewRecordingHandler(deps *Dependencies) *RecordingHandler {
	return &RecordingHandler{
		logger:        deps.Logger,
		recordings:    deps.Recordings,
		maxUploadSize: deps.MaxUploadSize,
	}
}

// StartRecording handles POST /recordings/start
func (h *RecordingHandler) StartRecording(c *gin.Context) {
	var req dto.StartRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	res, err := h.recordings.StartRecording(c.Request.Context(), service.StartRecordingInput{
		Mode:          domain.RecordingMode(req.Mode),
		AllowFallback: req.AllowFallback,
		Metadata:      req.Metadata,
		MeetingID:     req.MeetingID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Heartbeat handles POST /recordings/heartbeat
func (h *RecordingHandler) Heartbeat(c *gin.Context) {
	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	err := h.recordings.UpdateHeartbeat(c.Request.Context(), service.HeartbeatInput{
		SessionID: req.SessionID,
		DeviceID:  req.DeviceID,
		ClientTs:  req.Ts,
		ChunkInfo: req.ChunkInfo,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.HeartbeatResponse{OK: true})
}

// StopRecording handles POST /recordings/stop
func (h *RecordingHandler) StopRecording(c *gin.Context) {
	var req dto.StopRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	res, err := h.recordings.StopRecording(c.Request.Context(), service.StopRecordingInput{
		SessionID:     req.SessionID,
		CreateMeeting: req.CreateMeeting,
		FinalStats:    req.Stats,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PauseRecording handles POST /recordings/:session_id/pause
func (h *RecordingHandler) PauseRecording(c *gin.Context) {
	session, err := h.recordings.PauseRecording(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResumeRecording handles POST /recordings/:session_id/resume
func (h *RecordingHandler) ResumeRecording(c *gin.Context) {
	session, err := h.recordings.ResumeRecording(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetStatus handles GET /recordings/:session_id/status
func (h *RecordingHandler) GetStatus(c *gin.Context) {
	status, err := h.recordings.GetRecordingStatus(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// UploadChunk handles POST /recordings/:session_id/upload/chunk
// The chunk is sent as multipart form data in the "file" field.
func (h *RecordingHandler) UploadChunk(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	header, err := c.FormFile(chunkFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error:   string(domain.KindValidation),
				Message: "Upload too large",
				Details: map[string]any{"max_bytes": tooLarge.Limit},
			})
			return
		}
		respondBindError(c, h.logger, "chunk upload", err)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, domain.NewProcessingError("failed to open uploaded chunk", err))
		return
	}
	defer file.Close()

	res, err := h.recordings.UploadChunk(c.Request.Context(), service.UploadChunkInput{
		SessionID:   c.Param("session_id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
