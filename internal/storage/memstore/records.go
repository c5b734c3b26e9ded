package memstore

import (
	"context"
	"sort"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

func cloneTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.NewNotFoundError("task %s not found", id)
	}
	out := cloneTask(t)
	return &out, nil
}

func (s *Store) ListTasks(ctx context.Context, meetingID string, limit int) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Task{}
	for _, t := range s.tasks {
		if meetingID == "" || t.MeetingID == meetingID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return page(out, limit, 0), nil
}

func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return domain.NewNotFoundError("task %s not found", t.ID)
	}
	s.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return domain.NewNotFoundError("task %s not found", id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[m.ID] = *m
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, domain.NewNotFoundError("message %s not found", id)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, meetingID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Message{}
	for _, m := range s.messages {
		if meetingID == "" || m.MeetingID == meetingID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return page(out, limit, 0), nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return domain.NewNotFoundError("message %s not found", id)
	}
	delete(s.messages, id)
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, domain.NewNotFoundError("settings not found")
	}
	out := cloneSettings(*s.settings)
	return &out, nil
}

func (s *Store) SaveSettings(ctx context.Context, us *domain.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us.ID = domain.SettingsID
	saved := cloneSettings(*us)
	s.settings = &saved
	return nil
}

func cloneSettings(us domain.UserSettings) domain.UserSettings {
	if us.AutoDeleteDays != nil {
		v := *us.AutoDeleteDays
		us.AutoDeleteDays = &v
	}
	if us.RetentionPolicyDays != nil {
		v := *us.RetentionPolicyDays
		us.RetentionPolicyDays = &v
	}
	return us
}
