package httpx

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/mindmapsvc/internal/http/handlers"
	"github.com/you/mindmapsvc/internal/http/middleware"
)

// RateLimits carries the per-scope request budgets.
type RateLimits struct {
	RegisterMax    int
	RegisterWindow time.Duration
	LoginMax       int
	LoginWindow    time.Duration
	APIMax         int
	APIWindow      time.Duration
}

func BuildRouter(ah *handlers.AuthHandlers, gate *middleware.SessionGate, rl *middleware.RateLimiter, limits RateLimits) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(rl.Limit("api", limits.APIMax, limits.APIWindow))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/register", rl.Limit("register", limits.RegisterMax, limits.RegisterWindow), ah.Register)
	auth.POST("/login", rl.Limit("login", limits.LoginMax, limits.LoginWindow), ah.Login)
	auth.POST("/check-password-strength", ah.CheckPasswordStrength)
	auth.GET("/session", gate.Optional(), ah.Session)

	v := auth.Group("").Use(gate.Require())
	v.GET("/profile", ah.Profile)
	v.POST("/2fa/setup", ah.TwoFactorSetup)
	v.POST("/2fa/verify", ah.TwoFactorVerify)
	v.POST("/2fa/disable", ah.TwoFactorDisable)
	v.POST("/logout", ah.Logout)

	return r
}
