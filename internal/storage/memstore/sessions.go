package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

func cloneSession(rs domain.RecordingSession) domain.RecordingSession {
	rs.AudioFiles = slices.Clone(rs.AudioFiles)
	if rs.Markers != nil {
		markers := make(domain.Markers, len(rs.Markers))
		for i, m := range rs.Markers {
			markers[i] = maps.Clone(m)
		}
		rs.Markers = markers
	}
	rs.Metadata = maps.Clone(rs.Metadata)
	rs.FinalStats = maps.Clone(rs.FinalStats)
	if rs.EndedAt != nil {
		ended := *rs.EndedAt
		rs.EndedAt = &ended
	}
	return rs
}

func (s *Store) CreateSession(ctx context.Context, rs *domain.RecordingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[rs.SessionID]; ok {
		return domain.NewConflictError("recording session %s already exists", rs.SessionID)
	}
	s.sessions[rs.SessionID] = cloneSession(*rs)
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.RecordingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("recording session %s not found", sessionID)
	}
	out := cloneSession(rs)
	return &out, nil
}

func (s *Store) UpdateSession(ctx context.Context, rs *domain.RecordingSession, from domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[rs.SessionID]
	if !ok {
		return domain.NewNotFoundError("recording session %s not found", rs.SessionID)
	}
	if current.Status != from {
		return domain.NewConflictError("recording session %s changed concurrently", rs.SessionID)
	}
	s.sessions[rs.SessionID] = cloneSession(*rs)
	return nil
}

func matchSession(rs domain.RecordingSession, f domain.SessionFilter) bool {
	if f.DeviceID != "" && rs.DeviceID != f.DeviceID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rs.Status) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !rs.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	if !f.HeartbeatBefore.IsZero() && !rs.LastHeartbeat.Before(f.HeartbeatBefore) {
		return false
	}
	return true
}

func (s *Store) ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.RecordingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.RecordingSession{}
	for _, rs := range s.sessions {
		if matchSession(rs, f) {
			out = append(out, cloneSession(rs))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return page(out, f.Limit, 0), nil
}

func (s *Store) DeleteSessions(ctx context.Context, f domain.SessionFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rs := range s.sessions {
		if matchSession(rs, f) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
