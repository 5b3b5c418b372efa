package services

import (
	"strings"

	"github.com/you/mindmapsvc/domain"
)

// specialChars is the fixed set a password must draw its special character from.
const specialChars = "@$!%*?&"

// PasswordPolicyImpl implements domain.PasswordPolicy
type PasswordPolicyImpl struct{}

// NewPasswordPolicy creates the fixed-rule password policy
func NewPasswordPolicy() domain.PasswordPolicy {
	return &PasswordPolicyImpl{}
}

// ValidateStrength implements domain.PasswordPolicy. The check is pure: no
// randomness, no clock, identical output for identical input.
func (p *PasswordPolicyImpl) ValidateStrength(password string) domain.StrengthReport {
	criteria := domain.StrengthCriteria{
		MinLength: len([]rune(password)) >= 8,
	}
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			criteria.HasLowercase = true
		case r >= 'A' && r <= 'Z':
			criteria.HasUppercase = true
		case r >= '0' && r <= '9':
			criteria.HasNumber = true
		case strings.ContainsRune(specialChars, r):
			criteria.HasSpecialChar = true
		}
	}

	score := 0
	for _, met := range []bool{
		criteria.MinLength,
		criteria.HasLowercase,
		criteria.HasUppercase,
		criteria.HasNumber,
		criteria.HasSpecialChar,
	} {
		if met {
			score++
		}
	}

	strength := "strong"
	switch {
	case score <= 2:
		strength = "weak"
	case score <= 4:
		strength = "medium"
	}

	return domain.StrengthReport{
		IsValid:  score == 5,
		Score:    score,
		Criteria: criteria,
		Strength: strength,
	}
}

// UnmetRequirements names every criterion a report fails, for validation
// error messages.
func UnmetRequirements(report domain.StrengthReport) []string {
	var unmet []string
	if !report.Criteria.MinLength {
		unmet = append(unmet, "password must be at least 8 characters long")
	}
	if !report.Criteria.HasLowercase {
		unmet = append(unmet, "password must contain a lowercase letter")
	}
	if !report.Criteria.HasUppercase {
		unmet = append(unmet, "password must contain an uppercase letter")
	}
	if !report.Criteria.HasNumber {
		unmet = append(unmet, "password must contain a number")
	}
	if !report.Criteria.HasSpecialChar {
		unmet = append(unmet, "password must contain a special character (@$!%*?&)")
	}
	return unmet
}
