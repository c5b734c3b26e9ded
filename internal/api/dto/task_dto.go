package dto

import (
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

type ListByMeetingRequest struct {
	MeetingID string `form:"meeting_id"`
}

type CreateTaskRequest struct {
	MeetingID   string              `json:"meeting_id" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Assignee    string              `json:"assignee"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Assignee    *string              `json:"assignee"`
	Priority    *domain.TaskPriority `json:"priority"`
	Status      *domain.TaskStatus   `json:"status"`
	DueDate     *time.Time           `json:"due_date"`
}

func (r UpdateTaskRequest) Patch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Assignee:    r.Assignee,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
	}
}

type CreateMessageRequest struct {
	MeetingID string             `json:"meeting_id" binding:"required"`
	Content   string             `json:"content" binding:"required"`
	Type      domain.MessageType `json:"type"`
}
