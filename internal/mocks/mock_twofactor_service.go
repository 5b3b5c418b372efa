package mocks

import (
	"context"
	"time"

	"github.com/you/mindmapsvc/domain"
)

// MockTwoFactorService implements domain.TwoFactorService interface for testing
type MockTwoFactorService struct {
	BeginSetupFunc   func(ctx context.Context, user *domain.User, sessionID string) (*domain.TwoFactorEnrollment, error)
	ConfirmSetupFunc func(ctx context.Context, user *domain.User, sessionID, code string) error
	VerifyLoginFunc  func(user *domain.User, code string, at time.Time) bool
	DisableFunc      func(ctx context.Context, user *domain.User, password string) error
}

// NewMockTwoFactorService creates a new MockTwoFactorService with default behaviors
func NewMockTwoFactorService() *MockTwoFactorService {
	return &MockTwoFactorService{}
}

// BeginSetup starts a two-factor enrollment
func (m *MockTwoFactorService) BeginSetup(ctx context.Context, user *domain.User, sessionID string) (*domain.TwoFactorEnrollment, error) {
	if m.BeginSetupFunc != nil {
		return m.BeginSetupFunc(ctx, user, sessionID)
	}
	// Default behavior: fixed enrollment
	return &domain.TwoFactorEnrollment{
		Secret:     "JBSWY3DPEHPK3PXP",
		OtpauthURL: "otpauth://totp/test",
		QRCode:     "data:image/png;base64,",
	}, nil
}

// ConfirmSetup commits a pending enrollment
func (m *MockTwoFactorService) ConfirmSetup(ctx context.Context, user *domain.User, sessionID, code string) error {
	if m.ConfirmSetupFunc != nil {
		return m.ConfirmSetupFunc(ctx, user, sessionID, code)
	}
	// Default behavior: success
	return nil
}

// VerifyLogin checks a login code against the committed secret
func (m *MockTwoFactorService) VerifyLogin(user *domain.User, code string, at time.Time) bool {
	if m.VerifyLoginFunc != nil {
		return m.VerifyLoginFunc(user, code, at)
	}
	// Default behavior: accept
	return true
}

// Disable turns two-factor off
func (m *MockTwoFactorService) Disable(ctx context.Context, user *domain.User, password string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, user, password)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.TwoFactorService = (*MockTwoFactorService)(nil)
