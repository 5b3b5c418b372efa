package app

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/mindmapsvc/domain"
	"github.com/you/mindmapsvc/internal/config"
	"github.com/you/mindmapsvc/internal/infrastructure/auth"
	"github.com/you/mindmapsvc/internal/infrastructure/database"
	"github.com/you/mindmapsvc/internal/infrastructure/repositories"
	"github.com/you/mindmapsvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *database.RedisClient

	// Repositories
	UserRepo     domain.UserRepository
	PendingStore domain.PendingSecretStore

	// Services
	PasswordSvc    domain.PasswordService
	PasswordPolicy domain.PasswordPolicy
	TokenSvc       domain.TokenService
	TwoFactorSvc   domain.TwoFactorService
	AuthSvc        domain.AuthService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	c.initDatabase()
	if err := c.initRedis(); err != nil {
		return nil, err
	}
	c.initRepositories()
	c.initServices()

	return c, nil
}

// initDatabase opens the persistent store. Failure is not fatal: the store
// selector serves every operation from the in-memory fallback until the
// database comes back.
func (c *Container) initDatabase() {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		c.Logger.Warn("database unavailable, starting in-memory only", zap.Error(err))
		return
	}
	if err := database.AutoMigrate(db, &repositories.DBUser{}); err != nil {
		c.Logger.Warn("database migration failed", zap.Error(err))
	}
	c.DB = db
}

func (c *Container) initRedis() error {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	return nil
}

func (c *Container) initRepositories() {
	policy := domain.LockoutPolicy{
		MaxAttempts: c.Config.MaxLoginAttempts,
		LockWindow:  c.Config.LockWindow,
	}

	fallback := repositories.NewMemoryUserRepository(policy)

	var primary domain.UserRepository
	if c.DB != nil {
		primary = repositories.NewUserRepository(c.DB, policy)
	}

	c.UserRepo = repositories.NewStoreSelector(
		primary,
		fallback,
		repositories.NewGormHealthChecker(c.DB),
		c.Logger,
	)
	c.PendingStore = repositories.NewPendingSecretStore(c.RedisClient.Client, c.Config.PendingTwoFATTL)
}

func (c *Container) initServices() {
	c.PasswordSvc = auth.NewPasswordService()
	c.PasswordPolicy = services.NewPasswordPolicy()
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.TokenTTL)

	c.TwoFactorSvc = services.NewTwoFactorService(
		c.UserRepo,
		c.PasswordSvc,
		c.PendingStore,
		c.Config.TOTPIssuer,
		c.Logger,
	)

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.TwoFactorSvc,
		c.PasswordPolicy,
		c.Logger,
	)
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
