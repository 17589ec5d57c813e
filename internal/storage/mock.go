package storage

import (
	"context"
	"maps"
	"sync"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// MockStorage is an in-memory SessionStore for tests.
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[string]*story.Session
	pingError error
	saveError error
	loadError error
	saves     int
}

var _ SessionStore = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{sessions: make(map[string]*story.Session)}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes SaveSession fail with err.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes LoadSessions and LoadSession fail with err.
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SaveCount returns how many successful saves have happened.
func (m *MockStorage) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func copySession(s *story.Session) *story.Session {
	c := *s
	c.Characters = maps.Clone(s.Characters)
	if c.Characters == nil {
		c.Characters = make(map[string]string)
	}
	if s.ArcID != nil {
		v := *s.ArcID
		c.ArcID = &v
	}
	if s.ArcStage != nil {
		v := *s.ArcStage
		c.ArcStage = &v
	}
	return &c
}

func (m *MockStorage) LoadSessions(ctx context.Context) (map[string]*story.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	out := make(map[string]*story.Session, len(m.sessions))
	for id, s := range m.sessions {
		out[id] = copySession(s)
	}
	return out, nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id string) (*story.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *story.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[s.ID] = copySession(s)
	m.saves++
	return nil
}

func (m *MockStorage) ClearSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*story.Session)
	return nil
}
