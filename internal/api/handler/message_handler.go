package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/gin-gonic/gin"
)

// MessageHandler handles meeting message requests
type MessageHandler struct {
	logger   *slog.Logger
	messages *service.MessageService
}

func NewMessageHandler(deps *Dependencies) *MessageHandler {
	return &MessageHandler{logger: deps.Logger, messages: deps.Messages}
}

// ListMessages handles GET /messages?meeting_id=
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var req dto.ListByMeetingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, h.logger, "query parameters", err)
		return
	}

	messages, err := h.messages.ListMessages(c.Request.Context(), req.MeetingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// CreateMessage handles POST /messages
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), req.MeetingID, req.Content, req.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GetMessage handles GET /messages/:message_id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	msg, err := h.messages.GetMessage(c.Request.Context(), c.Param("message_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage handles DELETE /messages/:message_id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.messages.DeleteMessage(c.Request.Context(), c.Param("message_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.BaseResponse{Success: true, Message: "Message deleted successfully"})
}
