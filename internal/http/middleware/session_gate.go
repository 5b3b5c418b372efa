package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/mindmapsvc/domain"
)

const (
	userKey      = "current_user"
	sessionIDKey = "session_id"
)

var (
	errMissingAuthorization   = errors.New("authorization header required")
	errMalformedAuthorization = errors.New("invalid authorization header format")
)

// SessionGate authorizes requests: it verifies the bearer token, loads the
// user, enforces the lockout and idle-timeout policies, touches activity and
// attaches the identity to the request context.
type SessionGate struct {
	tokenSvc    domain.TokenService
	userRepo    domain.UserRepository
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionGate creates a session gate
func NewSessionGate(tokenSvc domain.TokenService, userRepo domain.UserRepository, idleTimeout time.Duration, logger *zap.Logger) *SessionGate {
	return &SessionGate{
		tokenSvc:    tokenSvc,
		userRepo:    userRepo,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by tests for the idle timeout.
func (g *SessionGate) WithClock(now func() time.Time) *SessionGate {
	g.now = now
	return g
}

// admit runs the full per-request check. On success the identity is attached
// to the context and nil is returned; failures surface as sentinel errors
// mapped to a response by gateRejection.
func (g *SessionGate) admit(c *gin.Context) error {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return errMissingAuthorization
	}

	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
		return errMalformedAuthorization
	}

	claims, err := g.tokenSvc.Validate(tokenParts[1])
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}

	user, err := g.userRepo.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return domain.ErrTokenInvalid
	}

	now := g.now()

	if user.IsLocked(now) {
		return domain.ErrAccountLocked
	}

	// Idle timeout is independent of token expiry: a valid token on a stale
	// session is still rejected.
	if now.Sub(user.LastActivity) > g.idleTimeout {
		return domain.ErrSessionExpired
	}

	if err := g.userRepo.UpdateActivity(c.Request.Context(), user.ID, now); err != nil {
		g.logger.Error("failed to update activity", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastActivity = now

	c.Set(userKey, user)
	c.Set(sessionIDKey, claims.SessionID)
	return nil
}

// gateRejection maps an admit error to the HTTP status and client message.
func gateRejection(err error) (int, string) {
	switch {
	case errors.Is(err, errMissingAuthorization):
		return http.StatusUnauthorized, "Authorization header required"
	case errors.Is(err, errMalformedAuthorization):
		return http.StatusUnauthorized, "Invalid authorization header format"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked, "Account temporarily locked"
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "Session expired due to inactivity"
	default:
		return http.StatusUnauthorized, "Invalid token"
	}
}

// Require returns the strict middleware: any failure rejects the request.
func (g *SessionGate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.admit(c); err != nil {
			status, message := gateRejection(err)
			c.AbortWithStatusJSON(status, gin.H{
				"success": false,
				"message": message,
			})
			return
		}
		c.Next()
	}
}

// Optional returns the lenient middleware: failures are swallowed and the
// request proceeds anonymously.
func (g *SessionGate) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = g.admit(c)
		c.Next()
	}
}

// CurrentUser returns the identity the gate attached, if any.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	val, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// SessionID returns the session identity of the presented token.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
