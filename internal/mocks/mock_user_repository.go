package mocks

import (
	"context"
	"time"

	"github.com/you/mindmapsvc/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc              func(ctx context.Context, user *domain.User) error
	FindByIdentifierFunc    func(ctx context.Context, identifier string) (*domain.User, error)
	FindByIDFunc            func(ctx context.Context, id uint) (*domain.User, error)
	UpdateFunc              func(ctx context.Context, user *domain.User) error
	UpdateActivityFunc      func(ctx context.Context, id uint, at time.Time) error
	RecordFailedAttemptFunc func(ctx context.Context, id uint, now time.Time) (*domain.User, error)
	ClearLockStateFunc      func(ctx context.Context, id uint) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// FindByIdentifier finds a user by username or email
func (m *MockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if m.FindByIdentifierFunc != nil {
		return m.FindByIdentifierFunc(ctx, identifier)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// Update updates an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// UpdateActivity touches the user's last activity timestamp
func (m *MockUserRepository) UpdateActivity(ctx context.Context, id uint, at time.Time) error {
	if m.UpdateActivityFunc != nil {
		return m.UpdateActivityFunc(ctx, id, at)
	}
	// Default behavior: success
	return nil
}

// RecordFailedAttempt books one failed login attempt
func (m *MockUserRepository) RecordFailedAttempt(ctx context.Context, id uint, now time.Time) (*domain.User, error) {
	if m.RecordFailedAttemptFunc != nil {
		return m.RecordFailedAttemptFunc(ctx, id, now)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// ClearLockState resets the lockout counters
func (m *MockUserRepository) ClearLockState(ctx context.Context, id uint) error {
	if m.ClearLockStateFunc != nil {
		return m.ClearLockStateFunc(ctx, id)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
