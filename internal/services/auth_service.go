package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/you/mindmapsvc/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo     domain.UserRepository
	passwordSvc  domain.PasswordService
	tokenSvc     domain.TokenService
	twoFactorSvc domain.TwoFactorService
	policy       domain.PasswordPolicy
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	twoFactorSvc domain.TwoFactorService,
	policy domain.PasswordPolicy,
	logger *zap.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		passwordSvc:  passwordSvc,
		tokenSvc:     tokenSvc,
		twoFactorSvc: twoFactorSvc,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the time source, used by tests for lockout windows.
func (s *AuthServiceImpl) WithClock(now func() time.Time) *AuthServiceImpl {
	s.now = now
	return s
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*domain.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var requirements []string
	if n := len([]rune(username)); n < 3 || n > 30 {
		requirements = append(requirements, "username must be between 3 and 30 characters")
	}
	if !emailPattern.MatchString(email) {
		requirements = append(requirements, "email must be a valid email address")
	}
	report := s.policy.ValidateStrength(password)
	if !report.IsValid {
		requirements = append(requirements, UnmetRequirements(report)...)
	}
	if len(requirements) > 0 {
		return nil, domain.NewValidationError(requirements...)
	}

	// Pre-check both identifiers; Create re-checks against whichever store is
	// authoritative at that moment.
	if _, err := s.userRepo.FindByIdentifier(ctx, username); err == nil {
		return nil, domain.ErrUserAlreadyExists
	}
	if _, err := s.userRepo.FindByIdentifier(ctx, email); err == nil {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		LastActivity: s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))

	return &domain.AuthResult{User: user, Token: token}, nil
}

// Login implements domain.AuthService. An unexpired lock rejects the attempt
// before any password comparison; the rejected attempt is still routed
// through the failure tracker.
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		// Unknown user and wrong password surface identically.
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()

	if user.IsLocked(now) {
		if _, err := s.userRepo.RecordFailedAttempt(ctx, user.ID, now); err != nil {
			s.logger.Error("failed to record attempt against locked account", zap.Error(err))
		}
		return nil, domain.ErrAccountLocked
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return nil, s.recordFailure(ctx, user, now, domain.ErrInvalidCredentials)
	}

	if user.TwoFactorEnabled {
		if twoFactorCode == "" {
			return &domain.AuthResult{User: user, RequiresTwoFactor: true}, nil
		}
		if !s.twoFactorSvc.VerifyLogin(user, twoFactorCode, now) {
			return nil, s.recordFailure(ctx, user, now, domain.ErrInvalidTwoFactorCode)
		}
	}

	if user.LoginAttempts > 0 || user.LockUntil != nil {
		if err := s.userRepo.ClearLockState(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to clear lock state: %w", err)
		}
		user.ClearLock()
	}

	if err := s.userRepo.UpdateActivity(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	user.LastActivity = now

	token, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.AuthResult{User: user, Token: token}, nil
}

// recordFailure books one failed attempt and returns loginErr unchanged.
func (s *AuthServiceImpl) recordFailure(ctx context.Context, user *domain.User, now time.Time, loginErr error) error {
	updated, err := s.userRepo.RecordFailedAttempt(ctx, user.ID, now)
	if err != nil {
		s.logger.Error("failed to record login failure",
			zap.Uint("user_id", user.ID), zap.Error(err))
		return loginErr
	}
	if updated.IsLocked(now) {
		s.logger.Warn("account locked after repeated failures",
			zap.Uint("user_id", user.ID),
			zap.Int("attempts", updated.LoginAttempts),
			zap.Timep("lock_until", updated.LockUntil))
	}
	return loginErr
}

// Profile implements domain.AuthService
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
