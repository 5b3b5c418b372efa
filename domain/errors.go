package domain

import (
	"errors"
	"strings"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrAccountLocked      = errors.New("account temporarily locked")
)

// Token errors
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Session errors
var (
	ErrSessionExpired = errors.New("session expired due to inactivity")
)

// Two-factor errors
var (
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrNoPendingSetup       = errors.New("no pending two-factor setup")
	ErrTwoFactorDisabled    = errors.New("two-factor authentication is not enabled")
)

// ValidationError reports policy-violating input and names each unmet
// requirement.
type ValidationError struct {
	Requirements []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Requirements, "; ")
}

// NewValidationError builds a ValidationError from requirement messages.
func NewValidationError(requirements ...string) *ValidationError {
	return &ValidationError{Requirements: requirements}
}
