package mocks

import (
	"context"
	"sync"

	"github.com/you/mindmapsvc/domain"
)

// MockPendingSecretStore implements domain.PendingSecretStore with an
// in-process map; slots never expire.
type MockPendingSecretStore struct {
	PutFunc    func(ctx context.Context, sessionID, secret string) error
	GetFunc    func(ctx context.Context, sessionID string) (string, error)
	DeleteFunc func(ctx context.Context, sessionID string) error

	mu    sync.Mutex
	slots map[string]string
}

// NewMockPendingSecretStore creates a new MockPendingSecretStore
func NewMockPendingSecretStore() *MockPendingSecretStore {
	return &MockPendingSecretStore{slots: make(map[string]string)}
}

// Put stores a pending secret
func (m *MockPendingSecretStore) Put(ctx context.Context, sessionID, secret string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, sessionID, secret)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[sessionID] = secret
	return nil
}

// Get fetches a pending secret
func (m *MockPendingSecretStore) Get(ctx context.Context, sessionID string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.slots[sessionID]
	if !ok {
		return "", domain.ErrNoPendingSetup
	}
	return secret, nil
}

// Delete discards a pending secret
func (m *MockPendingSecretStore) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, sessionID)
	return nil
}

// Compile-time interface compliance verification
var _ domain.PendingSecretStore = (*MockPendingSecretStore)(nil)
