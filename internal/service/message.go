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

type MessageService struct {
	repo   storage.MessageRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewMessageService(repo storage.MessageRepository, logger *slog.Logger) *MessageService {
	return &MessageService{repo: repo, logger: logger, now: utcNow}
}

func (s *MessageService) ListMessages(ctx context.Context, meetingID string) ([]domain.Message, error) {
	msgs, err := s.repo.ListMessages(ctx, meetingID, ListLimit)
	if err != nil {
		return nil, domain.WrapService("failed to list messages", err)
	}
	return msgs, nil
}

// CreateMessage pins a message to a meeting. The type defaults to highlight.
func (s *MessageService) CreateMessage(ctx context.Context, meetingID, content string, typ domain.MessageType) (*domain.Message, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, domain.NewValidationError("meeting_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.NewValidationError("message content cannot be empty")
	}
	if typ == "" {
		typ = domain.MessageHighlight
	}
	if !typ.Valid() {
		return nil, domain.NewValidationError("invalid message type %q", typ)
	}

	now := s.now()
	m := &domain.Message{
		ID:        uuid.New().String(),
		MeetingID: meetingID,
		Content:   content,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, domain.WrapService("failed to create message", err)
	}

	s.logger.Info("Message created", slog.String("message_id", m.ID), slog.String("type", string(typ)))
	return m, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, domain.WrapService("failed to get message", err)
	}
	return m, nil
}

func (s *MessageService) DeleteMessage(ctx context.Context, id string) error {
	if err := s.repo.DeleteMessage(ctx, id); err != nil {
		return domain.WrapService("failed to delete message", err)
	}
	return nil
}
