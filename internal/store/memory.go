package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskpilot/internal/model"
)

// Memory keeps every user's records in process memory. It backs tests
// and small single-node deployments.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*userState
	base  model.Settings
}

type userState struct {
	tasks    map[model.TaskID]model.Task
	folders  map[string]bool
	settings model.Settings
}

func NewMemory() *Memory {
	return &Memory{users: map[string]*userState{}, base: model.DefaultSettings()}
}

// SetBaseSettings changes the settings a user starts with before ever
// saving their own.
func (m *Memory) SetBaseSettings(set model.Settings) {
	m.mu.Lock()
	m.base = set
	m.mu.Unlock()
}

// ForUser binds a user id. The returned Store shares the parent's state.
func (m *Memory) ForUser(userID string) Store {
	return &memoryUser{parent: m, user: userID}
}

// peek returns the user's state without creating it; read paths hold
// only the read lock.
func (m *Memory) peek(user string) *userState {
	return m.users[user]
}

func (m *Memory) state(user string) *userState {
	st, ok := m.users[user]
	if !ok {
		st = &userState{
			tasks:    map[model.TaskID]model.Task{},
			folders:  map[string]bool{},
			settings: m.base,
		}
		for _, f := range model.DefaultFolders() {
			st.folders[f.Name] = true
		}
		m.users[user] = st
	}
	return st
}

type memoryUser struct {
	parent *Memory
	user   string
}

func (s *memoryUser) CreateTask(_ context.Context, t model.Task) (model.Task, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)

	now := time.Now()
	t.ID = model.TaskID("task_" + uuid.NewString())
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	st.tasks[t.ID] = t
	return t, nil
}

func (s *memoryUser) GetTask(_ context.Context, id model.TaskID) (model.Task, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()

	st := s.parent.peek(s.user)
	if st == nil {
		return model.Task{}, ErrTaskNotFound
	}
	t, ok := st.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (s *memoryUser) ListTasks(_ context.Context) ([]model.Task, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()

	st := s.parent.peek(s.user)
	if st == nil {
		return nil, nil
	}
	out := make([]model.Task, 0, len(st.tasks))
	for _, t := range st.tasks {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryUser) UpdateTask(_ context.Context, id model.TaskID, changes model.TaskChanges) (model.Task, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)
	t, ok := st.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}

	applyChanges(&t, changes)
	t.UpdatedAt = time.Now()
	st.tasks[id] = t
	return t, nil
}

func (s *memoryUser) DeleteTask(_ context.Context, id model.TaskID) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)
	if _, ok := st.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(st.tasks, id)
	return nil
}

func (s *memoryUser) ListFolders(_ context.Context) ([]model.Folder, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()

	st := s.parent.peek(s.user)
	if st == nil {
		folders := model.DefaultFolders()
		sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
		return folders, nil
	}
	out := make([]model.Folder, 0, len(st.folders))
	for name := range st.folders {
		out = append(out, model.Folder{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryUser) CreateFolder(_ context.Context, name string) (model.Folder, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)
	if st.folders[name] {
		return model.Folder{}, ErrDuplicateFolder
	}
	st.folders[name] = true
	return model.Folder{Name: name}, nil
}

func (s *memoryUser) DeleteFolder(_ context.Context, name string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)
	if !st.folders[name] {
		return ErrFolderNotFound
	}
	delete(st.folders, name)
	return nil
}

func (s *memoryUser) ReassignFolder(_ context.Context, from, to string) (int, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	st := s.parent.state(s.user)
	moved := 0
	for id, t := range st.tasks {
		if t.Folder == from {
			t.Folder = to
			t.UpdatedAt = time.Now()
			st.tasks[id] = t
			moved++
		}
	}
	return moved, nil
}

func (s *memoryUser) Settings(_ context.Context) (model.Settings, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()
	st := s.parent.peek(s.user)
	if st == nil {
		return s.parent.base, nil
	}
	return st.settings, nil
}

func (s *memoryUser) SaveSettings(_ context.Context, set model.Settings) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.state(s.user).settings = set
	return nil
}
