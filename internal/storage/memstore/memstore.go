// Package memstore is an in-memory implementation of the repositories. It is
// used by tests and by the api-service when no database is configured.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	meetings map[string]domain.Meeting
	sessions map[string]domain.RecordingSession
	tasks    map[string]domain.Task
	messages map[string]domain.Message
	settings *domain.UserSettings
}

func New() *Store {
	return &Store{
		meetings: make(map[string]domain.Meeting),
		sessions: make(map[string]domain.RecordingSession),
		tasks:    make(map[string]domain.Task),
		messages: make(map[string]domain.Message),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// newestFirst orders by created_at descending, then id descending.
func newestFirst(aCreated, bCreated time.Time, aID, bID string) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}

func cloneMeeting(m domain.Meeting) domain.Meeting {
	m.Participants = slices.Clone(m.Participants)
	m.ActionItems = slices.Clone(m.ActionItems)
	m.Decisions = slices.Clone(m.Decisions)
	return m
}

func (s *Store) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[m.ID]; ok {
		return domain.NewStorageError("failed to create meeting", domain.NewConflictError("meeting %s already exists", m.ID))
	}
	s.meetings[m.ID] = cloneMeeting(*m)
	return nil
}

func (s *Store) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetings[id]
	if !ok {
		return nil, domain.NewNotFoundError("meeting %s not found", id)
	}
	out := cloneMeeting(m)
	return &out, nil
}

func (s *Store) sortedMeetings(keep func(domain.Meeting) bool) []domain.Meeting {
	out := []domain.Meeting{}
	for _, m := range s.meetings {
		if keep(m) {
			out = append(out, cloneMeeting(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (s *Store) ListMeetings(ctx context.Context, limit, skip int) ([]domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedMeetings(func(domain.Meeting) bool { return true })
	return page(all, limit, skip), nil
}

func (s *Store) SearchMeetings(ctx context.Context, query string, limit int) ([]domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.sortedMeetings(func(m domain.Meeting) bool { return m.Matches(query) })
	return page(found, limit, 0), nil
}

func (s *Store) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[m.ID]; !ok {
		return domain.NewNotFoundError("meeting %s not found", m.ID)
	}
	s.meetings[m.ID] = cloneMeeting(*m)
	return nil
}

func (s *Store) DeleteMeeting(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[id]; !ok {
		return domain.NewNotFoundError("meeting %s not found", id)
	}
	delete(s.meetings, id)
	return nil
}

func page[T any](items []T, limit, skip int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

