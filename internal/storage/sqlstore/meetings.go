package sqlstore

import (
	"context"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

const meetingColumns = `
	id, title, date, participants, audio_data, transcript, summary,
	action_items, decisions, status, recording_session_id,
	transcription_job_id, created_at, updated_at`

func (s *Store) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	query := `
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (
			:id, :title, :date, :participants, :audio_data, :transcript, :summary,
			:action_items, :decisions, :status, :recording_session_id,
			:transcription_job_id, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, m); err != nil {
		return domain.NewStorageError("failed to create meeting", err)
	}
	return nil
}

func (s *Store) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	var m domain.Meeting
	query := s.rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`)

	if err := s.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, notFoundOr(err, "failed to get meeting", "meeting %s not found", id)
	}
	return &m, nil
}

func (s *Store) ListMeetings(ctx context.Context, limit, skip int) ([]domain.Meeting, error) {
	query := s.rebind(`
		SELECT ` + meetingColumns + `
		FROM meetings
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`)

	meetings := []domain.Meeting{}
	if err := s.db.SelectContext(ctx, &meetings, query, limit, skip); err != nil {
		return nil, domain.NewStorageError("failed to list meetings", err)
	}
	return meetings, nil
}

func (s *Store) SearchMeetings(ctx context.Context, q string, limit int) ([]domain.Meeting, error) {
	pattern := "%" + escapeLike(q) + "%"
	query := s.rebind(`
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE LOWER(title) LIKE LOWER(?) ESCAPE '\'
		   OR LOWER(summary) LIKE LOWER(?) ESCAPE '\'
		   OR LOWER(transcript) LIKE LOWER(?) ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	meetings := []domain.Meeting{}
	if err := s.db.SelectContext(ctx, &meetings, query, pattern, pattern, pattern, limit); err != nil {
		return nil, domain.NewStorageError("failed to search meetings", err)
	}
	return meetings, nil
}

func (s *Store) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	query := `
		UPDATE meetings SET
			title = :title,
			date = :date,
			participants = :participants,
			audio_data = :audio_data,
			transcript = :transcript,
			summary = :summary,
			action_items = :action_items,
			decisions = :decisions,
			status = :status,
			recording_session_id = :recording_session_id,
			transcription_job_id = :transcription_job_id,
			updated_at = :updated_at
		WHERE id = :id
	`

	res, err := s.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return domain.NewStorageError("failed to update meeting", err)
	}
	return requireAffected(res, "meeting %s not found", m.ID)
}

func (s *Store) DeleteMeeting(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM meetings WHERE id = ?`), id)
	if err != nil {
		return domain.NewStorageError("failed to delete meeting", err)
	}
	return requireAffected(res, "meeting %s not found", id)
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
