package domain

import (
	"context"
	"time"
)

// UserRepository defines credential store operations. Implementations exist
// for the persistent database and the in-memory fallback; callers must not
// assume durability when the fallback is active.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateActivity(ctx context.Context, id uint, at time.Time) error
	RecordFailedAttempt(ctx context.Context, id uint, now time.Time) (*User, error)
	ClearLockState(ctx context.Context, id uint) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, identifier, password, twoFactorCode string) (*AuthResult, error)
	Profile(ctx context.Context, userID uint) (*User, error)
}

// TwoFactorService defines TOTP enrollment and verification
type TwoFactorService interface {
	BeginSetup(ctx context.Context, user *User, sessionID string) (*TwoFactorEnrollment, error)
	ConfirmSetup(ctx context.Context, user *User, sessionID, code string) error
	VerifyLogin(user *User, code string, at time.Time) bool
	Disable(ctx context.Context, user *User, password string) error
}

// PasswordService defines password hashing operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// PasswordPolicy scores a password against the fixed strength rule set. The
// check is pure: identical input always yields an identical report.
type PasswordPolicy interface {
	ValidateStrength(password string) StrengthReport
}

// TokenService defines session token operations
type TokenService interface {
	Generate(userID uint) (string, error)
	Validate(token string) (*TokenClaims, error)
}

// PendingSecretStore holds unconfirmed two-factor secrets keyed by session,
// partitioned so an unconfirmed secret never leaks across sessions.
type PendingSecretStore interface {
	Put(ctx context.Context, sessionID, secret string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
