package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/mindmapsvc/internal/config"
	httpx "github.com/you/mindmapsvc/internal/http"
	"github.com/you/mindmapsvc/internal/http/handlers"
	"github.com/you/mindmapsvc/internal/http/middleware"
)

func Run(cfg *config.Config) error {
	logger, err := newLogger(cfg.GinMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.RedisClient.Ping(context.Background()); err != nil {
		return err
	}

	authH := handlers.NewAuthHandlers(c.AuthSvc, c.TwoFactorSvc, c.PasswordPolicy, logger)
	gate := middleware.NewSessionGate(c.TokenSvc, c.UserRepo, cfg.IdleTimeout, logger)
	rl := middleware.NewRateLimiter(c.RedisClient.Client, logger)

	limits := httpx.RateLimits{
		RegisterMax:    cfg.RegisterMax,
		RegisterWindow: cfg.RegisterWindow,
		LoginMax:       cfg.LoginMax,
		LoginWindow:    cfg.LoginWindow,
		APIMax:         cfg.APIMax,
		APIWindow:      cfg.APIWindow,
	}
	if gin.Mode() != gin.ReleaseMode {
		// Relaxed limits outside production.
		limits.RegisterMax *= 100
		limits.LoginMax *= 100
		limits.APIMax *= 100
	}

	r := httpx.BuildRouter(authH, gate, rl, limits)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, r)
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
