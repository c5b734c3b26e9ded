package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler handles task requests
type TaskHandler struct {
	logger *slog.Logger
	tasks  *service.TaskService
}

func NewTaskHandler(deps *Dependencies) *TaskHandler {
	return &TaskHandler{logger: deps.Logger, tasks: deps.Tasks}
}

// ListTasks handles GET /tasks?meeting_id=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var req dto.ListByMeetingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, h.logger, "query parameters", err)
		return
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), req.MeetingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), service.CreateTaskInput{
		MeetingID:   req.MeetingID,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GetTask handles GET /tasks/:task_id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PATCH /tasks/:task_id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("task_id"), req.Patch())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:task_id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("task_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.BaseResponse{Success: true, Message: "Task deleted successfully"})
}
