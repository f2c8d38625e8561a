package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	responders map[string]*dialogue.Definition
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		responders: make(map[string]*dialogue.Definition),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// AddResponder stores def under its ID
func (m *MockStorage) AddResponder(def *dialogue.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responders[def.ID] = def
}

func (m *MockStorage) ListResponders(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.responders))
	for id := range m.responders {
		ids = append(ids, id)
	}
	return uniqueSorted(ids), nil
}

func (m *MockStorage) GetResponder(ctx context.Context, id string) (*dialogue.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.responders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResponderNotFound, id)
	}
	return def, nil
}

func (m *MockStorage) SaveResponder(ctx context.Context, def *dialogue.Definition) error {
	if def == nil {
		return errors.New("responder definition cannot be nil")
	}
	m.AddResponder(def)
	return nil
}

func (m *MockStorage) DeleteResponder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responders, id)
	return nil
}
