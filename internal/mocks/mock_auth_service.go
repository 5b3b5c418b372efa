package mocks

import (
	"context"

	"github.com/you/mindmapsvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, username, email, password string) (*domain.AuthResult, error)
	LoginFunc    func(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error)
	ProfileFunc  func(ctx context.Context, userID uint) (*domain.User, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Register registers a new user
func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, email, password)
	}
	// Default behavior: minimal success
	return &domain.AuthResult{
		User:  &domain.User{ID: 1, Username: username, Email: email},
		Token: "token_1",
	}, nil
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identifier, password, twoFactorCode)
	}
	// Default behavior: invalid credentials
	return nil, domain.ErrInvalidCredentials
}

// Profile loads a user profile
func (m *MockAuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, userID)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
