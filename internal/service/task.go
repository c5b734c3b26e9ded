package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/storage"
	"github.com/google/uuid"
)

// ListLimit caps task and message listings.
const ListLimit = 100

type TaskService struct {
	repo   storage.TaskRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewTaskService(repo storage.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger, now: utcNow}
}

type CreateTaskInput struct {
	MeetingID   string
	Title       string
	Description string
	Assignee    string
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// ListTasks returns tasks newest first, optionally for one meeting.
func (s *TaskService) ListTasks(ctx context.Context, meetingID string) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, meetingID, ListLimit)
	if err != nil {
		return nil, domain.WrapService("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.MeetingID) == "" {
		return nil, domain.NewValidationError("meeting_id is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("task title cannot be empty")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, domain.NewValidationError("invalid task priority %q", priority)
	}

	now := s.now()
	t := &domain.Task{
		ID:          uuid.New().String(),
		MeetingID:   in.MeetingID,
		Title:       title,
		Description: in.Description,
		Assignee:    in.Assignee,
		Priority:    priority,
		Status:      domain.TaskPending,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, domain.WrapService("failed to create task", err)
	}

	s.logger.Info("Task created", slog.String("task_id", t.ID), slog.String("meeting_id", t.MeetingID))
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to get task", err)
	}
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.NewValidationError("task title cannot be empty")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, domain.NewValidationError("invalid task priority %q", *patch.Priority)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.NewValidationError("invalid task status %q", *patch.Status)
	}

	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to update task", err)
	}
	patch.ApplyTo(t)
	t.UpdatedAt = s.now()

	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, domain.WrapService("failed to update task", err)
	}

	s.logger.Info("Task updated", slog.String("task_id", id))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return domain.WrapService("failed to delete task", err)
	}
	return nil
}
