package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/mindmapsvc/domain"
	"github.com/you/mindmapsvc/internal/mocks"
	"github.com/you/mindmapsvc/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	authSvc      *mocks.MockAuthService
	twoFactorSvc *mocks.MockTwoFactorService
	handlers     *AuthHandlers
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		authSvc:      mocks.NewMockAuthService(),
		twoFactorSvc: mocks.NewMockTwoFactorService(),
	}
	f.handlers = NewAuthHandlers(f.authSvc, f.twoFactorSvc, services.NewPasswordPolicy(), zap.NewNop())
	return f
}

// asUser injects an authenticated identity the way the session gate does.
func asUser(user *domain.User, sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("current_user", user)
		c.Set("session_id", sessionID)
		c.Next()
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (bool, string, map[string]any, []any) {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
		Errors  []any          `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return body.Success, body.Message, body.Data, body.Errors
}

func TestAuthHandlers_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.authSvc.RegisterFunc = func(ctx context.Context, username, email, password string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:  &domain.User{ID: 7, Username: username, Email: email, PasswordHash: "must-not-leak"},
				Token: "token_7",
			}, nil
		}

		router := gin.New()
		router.POST("/auth/register", f.handlers.Register)
		w := performJSON(t, router, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@x.com","password":"Str0ng!Pass"}`)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		success, _, data, _ := decodeEnvelope(t, w)
		if !success {
			t.Error("expected success envelope")
		}
		if data["token"] != "token_7" {
			t.Errorf("expected token in response, got %v", data["token"])
		}
		user, _ := data["user"].(map[string]any)
		if user["username"] != "alice" {
			t.Errorf("expected sanitized user, got %v", data["user"])
		}
		if _, leaked := user["passwordHash"]; leaked {
			t.Error("password hash must never leave the API")
		}
		if strings.Contains(w.Body.String(), "must-not-leak") {
			t.Error("password hash must never leave the API")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newHandlerFixture(t)
		router := gin.New()
		router.POST("/auth/register", f.handlers.Register)

		w := performJSON(t, router, http.MethodPost, "/auth/register", `{"username":"alice"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.authSvc.RegisterFunc = func(ctx context.Context, username, email, password string) (*domain.AuthResult, error) {
			return nil, domain.NewValidationError(
				"Password must be at least 8 characters long",
				"Password must contain at least one uppercase letter",
			)
		}

		router := gin.New()
		router.POST("/auth/register", f.handlers.Register)
		w := performJSON(t, router, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@x.com","password":"weak"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		success, message, _, errs := decodeEnvelope(t, w)
		if success {
			t.Error("expected failure envelope")
		}
		if message != "Validation failed" {
			t.Errorf("unexpected message %q", message)
		}
		if len(errs) != 2 {
			t.Errorf("expected both requirements listed, got %v", errs)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.authSvc.RegisterFunc = func(ctx context.Context, username, email, password string) (*domain.AuthResult, error) {
			return nil, domain.ErrUserAlreadyExists
		}

		router := gin.New()
		router.POST("/auth/register", f.handlers.Register)
		w := performJSON(t, router, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@x.com","password":"Str0ng!Pass"}`)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.authSvc.LoginFunc = func(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:  &domain.User{ID: 7, Username: "alice", Email: "alice@x.com"},
				Token: "token_7",
			}, nil
		}

		router := gin.New()
		router.POST("/auth/login", f.handlers.Login)
		w := performJSON(t, router, http.MethodPost, "/auth/login",
			`{"username":"alice","password":"Str0ng!Pass"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		_, _, data, _ := decodeEnvelope(t, w)
		if data["token"] != "token_7" {
			t.Errorf("expected token, got %v", data["token"])
		}
	})

	t.Run("two-factor challenge", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.authSvc.LoginFunc = func(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:              &domain.User{ID: 7, Username: "alice"},
				RequiresTwoFactor: true,
			}, nil
		}

		router := gin.New()
		router.POST("/auth/login", f.handlers.Login)
		w := performJSON(t, router, http.MethodPost, "/auth/login",
			`{"username":"alice","password":"Str0ng!Pass"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		_, _, data, _ := decodeEnvelope(t, w)
		if data["requiresTwoFactor"] != true {
			t.Error("expected the two-factor challenge flag")
		}
		if _, hasToken := data["token"]; hasToken {
			t.Error("no token may be issued before the second factor")
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
			{"locked account", domain.ErrAccountLocked, http.StatusLocked},
			{"bad two-factor code", domain.ErrInvalidTwoFactorCode, http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newHandlerFixture(t)
				f.authSvc.LoginFunc = func(ctx context.Context, identifier, password, twoFactorCode string) (*domain.AuthResult, error) {
					return nil, tt.err
				}

				router := gin.New()
				router.POST("/auth/login", f.handlers.Login)
				w := performJSON(t, router, http.MethodPost, "/auth/login",
					`{"username":"alice","password":"x"}`)

				if w.Code != tt.wantStatus {
					t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
				}
				success, _, _, _ := decodeEnvelope(t, w)
				if success {
					t.Error("expected failure envelope")
				}
			})
		}
	})

	t.Run("missing body", func(t *testing.T) {
		f := newHandlerFixture(t)
		router := gin.New()
		router.POST("/auth/login", f.handlers.Login)

		w := performJSON(t, router, http.MethodPost, "/auth/login", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_CheckPasswordStrength(t *testing.T) {
	f := newHandlerFixture(t)
	router := gin.New()
	router.POST("/auth/check-password-strength", f.handlers.CheckPasswordStrength)

	t.Run("reports criteria", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/auth/check-password-strength",
			`{"password":"Str0ng!Pass"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		_, _, data, _ := decodeEnvelope(t, w)
		if data["isValid"] != true {
			t.Errorf("expected valid password report, got %v", data)
		}
		if data["strength"] != "strong" {
			t.Errorf("expected strong, got %v", data["strength"])
		}
		if data["score"] != float64(5) {
			t.Errorf("expected score 5, got %v", data["score"])
		}
	})

	t.Run("missing password", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/auth/check-password-strength", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_Session(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		f := newHandlerFixture(t)
		router := gin.New()
		router.GET("/auth/session", f.handlers.Session)

		w := performJSON(t, router, http.MethodGet, "/auth/session", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		_, _, data, _ := decodeEnvelope(t, w)
		if data["authenticated"] != false {
			t.Error("expected authenticated=false for an anonymous session")
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		f := newHandlerFixture(t)
		router := gin.New()
		router.GET("/auth/session", asUser(&domain.User{ID: 7, Username: "alice"}, "sess-1"), f.handlers.Session)

		w := performJSON(t, router, http.MethodGet, "/auth/session", "")
		_, _, data, _ := decodeEnvelope(t, w)
		if data["authenticated"] != true {
			t.Error("expected authenticated=true")
		}
	})
}

func TestAuthHandlers_Profile(t *testing.T) {
	f := newHandlerFixture(t)
	router := gin.New()
	router.GET("/auth/profile", asUser(&domain.User{ID: 7, Username: "alice", Email: "alice@x.com"}, "sess-1"), f.handlers.Profile)

	w := performJSON(t, router, http.MethodGet, "/auth/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	_, _, data, _ := decodeEnvelope(t, w)
	user, _ := data["user"].(map[string]any)
	if user["email"] != "alice@x.com" {
		t.Errorf("expected profile fields, got %v", data["user"])
	}
}

func TestAuthHandlers_TwoFactorSetup(t *testing.T) {
	f := newHandlerFixture(t)
	var gotSession string
	f.twoFactorSvc.BeginSetupFunc = func(ctx context.Context, user *domain.User, sessionID string) (*domain.TwoFactorEnrollment, error) {
		gotSession = sessionID
		return &domain.TwoFactorEnrollment{
			Secret:     "JBSWY3DPEHPK3PXP",
			OtpauthURL: "otpauth://totp/MindMap:alice@x.com",
			QRCode:     "data:image/png;base64,xyz",
		}, nil
	}

	router := gin.New()
	router.POST("/auth/2fa/setup", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.TwoFactorSetup)

	w := performJSON(t, router, http.MethodPost, "/auth/2fa/setup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotSession != "sess-1" {
		t.Errorf("expected the caller's session id, got %q", gotSession)
	}
	_, _, data, _ := decodeEnvelope(t, w)
	if data["secret"] != "JBSWY3DPEHPK3PXP" || data["qrCode"] != "data:image/png;base64,xyz" {
		t.Errorf("expected enrollment payload, got %v", data)
	}
}

func TestAuthHandlers_TwoFactorVerify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"no pending setup", domain.ErrNoPendingSetup, http.StatusBadRequest},
		{"wrong code", domain.ErrInvalidTwoFactorCode, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			f.twoFactorSvc.ConfirmSetupFunc = func(ctx context.Context, user *domain.User, sessionID, code string) error {
				return tt.err
			}

			router := gin.New()
			router.POST("/auth/2fa/verify", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.TwoFactorVerify)

			w := performJSON(t, router, http.MethodPost, "/auth/2fa/verify", `{"code":"123456"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestAuthHandlers_TwoFactorDisable(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.twoFactorSvc.DisableFunc = func(ctx context.Context, user *domain.User, password string) error {
			return domain.ErrInvalidCredentials
		}

		router := gin.New()
		router.POST("/auth/2fa/disable", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.TwoFactorDisable)

		w := performJSON(t, router, http.MethodPost, "/auth/2fa/disable", `{"password":"wrong"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		_, message, _, _ := decodeEnvelope(t, w)
		if message != "Invalid password" {
			t.Errorf("unexpected message %q", message)
		}
	})

	t.Run("not enabled", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.twoFactorSvc.DisableFunc = func(ctx context.Context, user *domain.User, password string) error {
			return domain.ErrTwoFactorDisabled
		}

		router := gin.New()
		router.POST("/auth/2fa/disable", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.TwoFactorDisable)

		w := performJSON(t, router, http.MethodPost, "/auth/2fa/disable", `{"password":"Str0ng!Pass"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		_, message, _, _ := decodeEnvelope(t, w)
		if message != "Two-factor authentication is not enabled" {
			t.Errorf("unexpected message %q", message)
		}
	})

	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture(t)
		router := gin.New()
		router.POST("/auth/2fa/disable", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.TwoFactorDisable)

		w := performJSON(t, router, http.MethodPost, "/auth/2fa/disable", `{"password":"Str0ng!Pass"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	f := newHandlerFixture(t)
	router := gin.New()
	router.POST("/auth/logout", asUser(&domain.User{ID: 7}, "sess-1"), f.handlers.Logout)

	w := performJSON(t, router, http.MethodPost, "/auth/logout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	success, message, _, _ := decodeEnvelope(t, w)
	if !success || message != "Logged out successfully" {
		t.Errorf("unexpected envelope: %s", w.Body.String())
	}
}
