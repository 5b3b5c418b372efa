package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/mindmapsvc/domain"
	"github.com/you/mindmapsvc/internal/http/middleware"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc      domain.AuthService
	twoFactorSvc domain.TwoFactorService
	policy       domain.PasswordPolicy
	logger       *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, twoFactorSvc domain.TwoFactorService, policy domain.PasswordPolicy, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authSvc:      authSvc,
		twoFactorSvc: twoFactorSvc,
		policy:       policy,
		logger:       logger,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents a login request; username accepts either the
// username or the email address.
type LoginRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	TwoFactorCode string `json:"twoFactorCode"`
}

// StrengthRequest represents a standalone password strength check
type StrengthRequest struct {
	Password string `json:"password" binding:"required"`
}

// TwoFactorVerifyRequest carries the enrollment confirmation code
type TwoFactorVerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorDisableRequest carries the password re-proof
type TwoFactorDisableRequest struct {
	Password string `json:"password" binding:"required"`
}

// sanitizeUser strips secrets from a user record before it leaves the API.
func sanitizeUser(u *domain.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"username":         u.Username,
		"email":            u.Email,
		"isEmailVerified":  u.IsEmailVerified,
		"twoFactorEnabled": u.TwoFactorEnabled,
		"lastActivity":     u.LastActivity.UTC().Format(time.RFC3339),
		"createdAt":        u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "username, email and password are required")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(c, http.StatusBadRequest, "Validation failed", verr.Requirements...)
		case errors.Is(err, domain.ErrUserAlreadyExists):
			respondError(c, http.StatusConflict, "Username or email already in use")
		default:
			h.logger.Error("registration failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	respondOK(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  sanitizeUser(result.User),
		"token": result.Token,
	})
}

// Login handles user login, including the second step when two-factor is on
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password, req.TwoFactorCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, domain.ErrAccountLocked):
			respondError(c, http.StatusLocked, "Account temporarily locked due to too many failed attempts")
		case errors.Is(err, domain.ErrInvalidTwoFactorCode):
			respondError(c, http.StatusBadRequest, "Invalid two-factor code")
		default:
			h.logger.Error("login failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	if result.RequiresTwoFactor {
		respondOK(c, http.StatusOK, "Two-factor code required", gin.H{
			"requiresTwoFactor": true,
			"userId":            result.User.ID,
		})
		return
	}

	respondOK(c, http.StatusOK, "Login successful", gin.H{
		"user":  sanitizeUser(result.User),
		"token": result.Token,
	})
}

// CheckPasswordStrength handles the client-facing strength check
func (h *AuthHandlers) CheckPasswordStrength(c *gin.Context) {
	var req StrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "password is required")
		return
	}

	respondOK(c, http.StatusOK, "", h.policy.ValidateStrength(req.Password))
}

// Session reports the identity attached by the optional gate, if any.
func (h *AuthHandlers) Session(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondOK(c, http.StatusOK, "", gin.H{"authenticated": false})
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{
		"authenticated": true,
		"user":          sanitizeUser(user),
	})
}

// Profile handles getting the authenticated user's profile
func (h *AuthHandlers) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"user": sanitizeUser(user)})
}

// TwoFactorSetup begins enrollment: fresh secret, otpauth URI and QR code.
func (h *AuthHandlers) TwoFactorSetup(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	enrollment, err := h.twoFactorSvc.BeginSetup(c.Request.Context(), user, middleware.SessionID(c))
	if err != nil {
		h.logger.Error("two-factor setup failed", zap.Uint("user_id", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to begin two-factor setup")
		return
	}

	respondOK(c, http.StatusOK, "Scan the QR code with your authenticator app", gin.H{
		"secret":     enrollment.Secret,
		"otpauthUrl": enrollment.OtpauthURL,
		"qrCode":     enrollment.QRCode,
	})
}

// TwoFactorVerify confirms enrollment with a code from the authenticator app
func (h *AuthHandlers) TwoFactorVerify(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req TwoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "code is required")
		return
	}

	err := h.twoFactorSvc.ConfirmSetup(c.Request.Context(), user, middleware.SessionID(c), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoPendingSetup):
			respondError(c, http.StatusBadRequest, "No two-factor setup in progress")
		case errors.Is(err, domain.ErrInvalidTwoFactorCode):
			respondError(c, http.StatusBadRequest, "Invalid two-factor code")
		default:
			h.logger.Error("two-factor verify failed", zap.Uint("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to verify two-factor code")
		}
		return
	}

	respondOK(c, http.StatusOK, "Two-factor authentication enabled", nil)
}

// TwoFactorDisable turns two-factor off after a password re-proof
func (h *AuthHandlers) TwoFactorDisable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req TwoFactorDisableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.twoFactorSvc.Disable(c.Request.Context(), user, req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondError(c, http.StatusBadRequest, "Invalid password")
		case errors.Is(err, domain.ErrTwoFactorDisabled):
			respondError(c, http.StatusBadRequest, "Two-factor authentication is not enabled")
		default:
			h.logger.Error("two-factor disable failed", zap.Uint("user_id", user.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to disable two-factor")
		}
		return
	}

	respondOK(c, http.StatusOK, "Two-factor authentication disabled", nil)
}

// Logout acknowledges the logout; tokens are stateless so the client simply
// discards its copy.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if user, ok := middleware.CurrentUser(c); ok {
		h.logger.Info("user logged out", zap.Uint("user_id", user.ID))
	}
	respondOK(c, http.StatusOK, "Logged out successfully", nil)
}
