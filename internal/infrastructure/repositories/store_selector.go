package repositories

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/mindmapsvc/domain"
)

// HealthChecker reports whether the persistent database is reachable right now.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// GormHealthChecker pings the underlying sql.DB with a short deadline.
type GormHealthChecker struct {
	db *gorm.DB
}

func NewGormHealthChecker(db *gorm.DB) *GormHealthChecker {
	return &GormHealthChecker{db: db}
}

func (h *GormHealthChecker) Healthy(ctx context.Context) bool {
	if h == nil || h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx) == nil
}

// StoreSelector implements domain.UserRepository by choosing between the
// database store and the in-memory fallback on every single operation. The
// probe result is never cached, so a database outage shifts the next call to
// the fallback and recovery shifts it back; no data migrates between the two.
type StoreSelector struct {
	primary    domain.UserRepository
	fallback   domain.UserRepository
	health     HealthChecker
	logger     *zap.Logger
	inFallback atomic.Bool
}

// NewStoreSelector builds a selector; primary may be nil when no database
// handle could be opened, in which case every call uses the fallback.
func NewStoreSelector(primary domain.UserRepository, fallback domain.UserRepository, health HealthChecker, logger *zap.Logger) *StoreSelector {
	return &StoreSelector{
		primary:  primary,
		fallback: fallback,
		health:   health,
		logger:   logger,
	}
}

// repo picks the authoritative store for this one operation.
func (s *StoreSelector) repo(ctx context.Context) domain.UserRepository {
	usable := s.primary != nil && s.health.Healthy(ctx)
	if s.inFallback.CompareAndSwap(usable, !usable) {
		if usable {
			s.logger.Warn("credential store switched to database mode")
		} else {
			s.logger.Warn("credential store switched to in-memory fallback",
				zap.String("note", "records will not survive a restart"))
		}
	}
	if usable {
		return s.primary
	}
	return s.fallback
}

func (s *StoreSelector) Create(ctx context.Context, user *domain.User) error {
	return s.repo(ctx).Create(ctx, user)
}

func (s *StoreSelector) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return s.repo(ctx).FindByIdentifier(ctx, identifier)
}

func (s *StoreSelector) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo(ctx).FindByID(ctx, id)
}

func (s *StoreSelector) Update(ctx context.Context, user *domain.User) error {
	return s.repo(ctx).Update(ctx, user)
}

func (s *StoreSelector) UpdateActivity(ctx context.Context, id uint, at time.Time) error {
	return s.repo(ctx).UpdateActivity(ctx, id, at)
}

func (s *StoreSelector) RecordFailedAttempt(ctx context.Context, id uint, now time.Time) (*domain.User, error) {
	return s.repo(ctx).RecordFailedAttempt(ctx, id, now)
}

func (s *StoreSelector) ClearLockState(ctx context.Context, id uint) error {
	return s.repo(ctx).ClearLockState(ctx, id)
}
