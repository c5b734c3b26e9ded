package sqlstore

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

const messageColumns = `id, meeting_id, content, type, created_at, updated_at`

func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (:id, :meeting_id, :content, :type, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, m); err != nil {
		return domain.NewStorageError("failed to create message", err)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	query := s.rebind(`SELECT ` + messageColumns + ` FROM messages WHERE id = ?`)

	if err := s.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, notFoundOr(err, "failed to get message", "message %s not found", id)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, meetingID string, limit int) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages`
	args := []any{}
	if meetingID != "" {
		query += ` WHERE meeting_id = ?`
		args = append(args, meetingID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	messages := []domain.Message{}
	if err := s.db.SelectContext(ctx, &messages, s.rebind(query), args...); err != nil {
		return nil, domain.NewStorageError("failed to list messages", err)
	}
	return messages, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return domain.NewStorageError("failed to delete message", err)
	}
	return requireAffected(res, "message %s not found", id)
}
