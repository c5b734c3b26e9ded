package sqlstore

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

const taskColumns = `
	id, meeting_id, title, description, assignee, priority, status,
	due_date, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (
			:id, :meeting_id, :title, :description, :assignee, :priority, :status,
			:due_date, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, t); err != nil {
		return domain.NewStorageError("failed to create task", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	query := s.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	if err := s.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, notFoundOr(err, "failed to get task", "task %s not found", id)
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, meetingID string, limit int) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if meetingID != "" {
		query += ` WHERE meeting_id = ?`
		args = append(args, meetingID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	tasks := []domain.Task{}
	if err := s.db.SelectContext(ctx, &tasks, s.rebind(query), args...); err != nil {
		return nil, domain.NewStorageError("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks SET
			title = :title,
			description = :description,
			assignee = :assignee,
			priority = :priority,
			status = :status,
			due_date = :due_date,
			updated_at = :updated_at
		WHERE id = :id
	`

	res, err := s.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return domain.NewStorageError("failed to update task", err)
	}
	return requireAffected(res, "task %s not found", t.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return domain.NewStorageError("failed to delete task", err)
	}
	return requireAffected(res, "task %s not found", id)
}
