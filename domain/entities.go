package domain

import "time"

// User represents an account in the system
type User struct {
	ID               uint
	Username         string
	Email            string
	PasswordHash     string
	IsEmailVerified  bool
	EmailVerifyToken string
	TwoFactorSecret  string
	TwoFactorEnabled bool
	LoginAttempts    int
	LockUntil        *time.Time
	LastActivity     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LockoutPolicy bounds consecutive failed logins before a timed lock
type LockoutPolicy struct {
	MaxAttempts int
	LockWindow  time.Duration
}

// DefaultLockoutPolicy locks an account for two hours after five failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, LockWindow: 2 * time.Hour}
}

// IsLocked reports whether the account is under an unexpired lock.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailure applies one failed login to the lockout state machine.
// While an unexpired lock is in place the failure changes nothing. A failure
// after the lock has expired starts a fresh count at 1. Otherwise the counter
// increments, and reaching the policy maximum sets the lock window.
func (u *User) RegisterFailure(now time.Time, policy LockoutPolicy) {
	if u.IsLocked(now) {
		return
	}
	if u.LockUntil != nil {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return
	}
	u.LoginAttempts++
	if u.LoginAttempts >= policy.MaxAttempts {
		until := now.Add(policy.LockWindow)
		u.LockUntil = &until
	}
}

// ClearLock resets the failure counter and lock window after a successful
// authentication.
func (u *User) ClearLock() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// Clone returns a copy safe to hand across store boundaries.
func (u *User) Clone() *User {
	c := *u
	if u.LockUntil != nil {
		t := *u.LockUntil
		c.LockUntil = &t
	}
	return &c
}

// AuthResult represents a login or registration outcome
type AuthResult struct {
	User              *User
	Token             string
	RequiresTwoFactor bool
}

// TokenClaims represents verified session token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// TwoFactorEnrollment carries the artifacts of a pending 2FA setup
type TwoFactorEnrollment struct {
	Secret     string
	OtpauthURL string
	QRCode     string
}

// StrengthCriteria records which individual password rules a candidate meets
type StrengthCriteria struct {
	MinLength      bool `json:"minLength"`
	HasLowercase   bool `json:"hasLowercase"`
	HasUppercase   bool `json:"hasUppercase"`
	HasNumber      bool `json:"hasNumber"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// StrengthReport is the result of scoring a password against the fixed rule set
type StrengthReport struct {
	IsValid  bool             `json:"isValid"`
	Score    int              `json:"score"`
	Criteria StrengthCriteria `json:"criteria"`
	Strength string           `json:"strength"`
}
