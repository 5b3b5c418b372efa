package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/you/mindmapsvc/domain"
)

// totpSkew accepts codes within +-2 time steps of the current one.
const totpSkew = 2

// TwoFactorServiceImpl implements domain.TwoFactorService using time-based
// one-time codes. A generated secret lives in the pending store until the
// caller proves possession of it; only then does it reach the user record.
type TwoFactorServiceImpl struct {
	userRepo    domain.UserRepository
	passwordSvc domain.PasswordService
	pending     domain.PendingSecretStore
	issuer      string
	logger      *zap.Logger
	now         func() time.Time
}

// NewTwoFactorService creates a new two-factor service
func NewTwoFactorService(
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	pending domain.PendingSecretStore,
	issuer string,
	logger *zap.Logger,
) *TwoFactorServiceImpl {
	return &TwoFactorServiceImpl{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		pending:     pending,
		issuer:      issuer,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by tests for code windows.
func (s *TwoFactorServiceImpl) WithClock(now func() time.Time) *TwoFactorServiceImpl {
	s.now = now
	return s
}

// BeginSetup implements domain.TwoFactorService. The user record is not
// touched; the fresh secret waits in the session's pending slot.
func (s *TwoFactorServiceImpl) BeginSetup(ctx context.Context, user *domain.User, sessionID string) (*domain.TwoFactorEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	if err := s.pending.Put(ctx, sessionID, key.Secret()); err != nil {
		return nil, fmt.Errorf("failed to store pending secret: %w", err)
	}

	qr, err := qrDataURI(key)
	if err != nil {
		return nil, fmt.Errorf("failed to render enrollment qr: %w", err)
	}

	return &domain.TwoFactorEnrollment{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
		QRCode:     qr,
	}, nil
}

// ConfirmSetup implements domain.TwoFactorService. The pending secret is
// committed to the user record only after a matching code, then discarded.
func (s *TwoFactorServiceImpl) ConfirmSetup(ctx context.Context, user *domain.User, sessionID, code string) error {
	secret, err := s.pending.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if !validCode(code, secret, s.now()) {
		return domain.ErrInvalidTwoFactorCode
	}

	user.TwoFactorSecret = secret
	user.TwoFactorEnabled = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to commit two-factor secret: %w", err)
	}

	if err := s.pending.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to discard pending secret after promotion",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("two-factor authentication enabled", zap.Uint("user_id", user.ID))
	return nil
}

// VerifyLogin implements domain.TwoFactorService
func (s *TwoFactorServiceImpl) VerifyLogin(user *domain.User, code string, at time.Time) bool {
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return false
	}
	return validCode(code, user.TwoFactorSecret, at)
}

// Disable implements domain.TwoFactorService; the caller must re-prove the
// current password before the secret is cleared.
func (s *TwoFactorServiceImpl) Disable(ctx context.Context, user *domain.User, password string) error {
	if !user.TwoFactorEnabled {
		return domain.ErrTwoFactorDisabled
	}
	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return domain.ErrInvalidCredentials
	}

	user.TwoFactorSecret = ""
	user.TwoFactorEnabled = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}

	s.logger.Info("two-factor authentication disabled", zap.Uint("user_id", user.ID))
	return nil
}

// validCode checks a code against a secret within the tolerance window.
func validCode(code, secret string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// qrDataURI renders the enrollment key as a base64 PNG data URI for the
// client to display.
func qrDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
