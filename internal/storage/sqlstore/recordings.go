package sqlstore

import (
	"context"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

const sessionColumns = `
	id, session_id, mode, device_id, user_id, meeting_id, status,
	allow_fallback, started_at, ended_at, audio_files, markers, metadata,
	last_heartbeat, final_stats, created_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, rs *domain.RecordingSession) error {
	query := `
		INSERT INTO recording_sessions (` + sessionColumns + `)
		VALUES (
			:id, :session_id, :mode, :device_id, :user_id, :meeting_id, :status,
			:allow_fallback, :started_at, :ended_at, :audio_files, :markers, :metadata,
			:last_heartbeat, :final_stats, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, rs); err != nil {
		return domain.NewStorageError("failed to create recording session", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.RecordingSession, error) {
	var rs domain.RecordingSession
	query := s.rebind(`SELECT ` + sessionColumns + ` FROM recording_sessions WHERE session_id = ?`)

	if err := s.db.GetContext(ctx, &rs, query, sessionID); err != nil {
		return nil, notFoundOr(err, "failed to get recording session",
			"recording session %s not found", sessionID)
	}
	return &rs, nil
}

// UpdateSession performs a compare-and-set on status so that two writers
// cannot both move the session out of the same state.
func (s *Store) UpdateSession(ctx context.Context, rs *domain.RecordingSession, from domain.SessionStatus) error {
	query := s.rebind(`
		UPDATE recording_sessions SET
			meeting_id = ?,
			status = ?,
			ended_at = ?,
			audio_files = ?,
			markers = ?,
			metadata = ?,
			last_heartbeat = ?,
			final_stats = ?,
			updated_at = ?
		WHERE session_id = ? AND status = ?
	`)

	res, err := s.db.ExecContext(ctx, query,
		rs.MeetingID,
		rs.Status,
		rs.EndedAt,
		rs.AudioFiles,
		rs.Markers,
		rs.Metadata,
		rs.LastHeartbeat,
		rs.FinalStats,
		rs.UpdatedAt,
		rs.SessionID,
		from,
	)
	if err != nil {
		return domain.NewStorageError("failed to update recording session", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("failed to read affected rows", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish a missing session from a lost race
	if _, err := s.GetSession(ctx, rs.SessionID); err != nil {
		return err
	}
	return domain.NewConflictError("recording session %s changed concurrently", rs.SessionID)
}

func sessionWhere(f domain.SessionFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.DeviceID != "" {
		clauses = append(clauses, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, "status IN "+inClause(len(f.Statuses)))
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if !f.CreatedBefore.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, f.CreatedBefore.UTC())
	}
	if !f.HeartbeatBefore.IsZero() {
		clauses = append(clauses, "last_heartbeat < ?")
		args = append(args, f.HeartbeatBefore.UTC())
	}

	return strings.Join(clauses, " AND "), args
}

func (s *Store) ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.RecordingSession, error) {
	where, args := sessionWhere(f)
	query := `SELECT ` + sessionColumns + ` FROM recording_sessions WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	sessions := []domain.RecordingSession{}
	if err := s.db.SelectContext(ctx, &sessions, s.rebind(query), args...); err != nil {
		return nil, domain.NewStorageError("failed to list recording sessions", err)
	}
	return sessions, nil
}

func (s *Store) DeleteSessions(ctx context.Context, f domain.SessionFilter) (int64, error) {
	where, args := sessionWhere(f)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM recording_sessions WHERE `+where), args...)
	if err != nil {
		return 0, domain.NewStorageError("failed to delete recording sessions", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewStorageError("failed to read affected rows", err)
	}
	return n, nil
}
