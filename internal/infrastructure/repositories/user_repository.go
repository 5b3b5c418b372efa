package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/mindmapsvc/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db     *gorm.DB
	policy domain.LockoutPolicy
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID               uint       `gorm:"primaryKey"`
	Username         string     `gorm:"uniqueIndex;size:30"`
	Email            string     `gorm:"uniqueIndex;size:255"`
	PasswordHash     string     `gorm:"column:password"`
	IsEmailVerified  bool       `gorm:"default:false"`
	EmailVerifyToken string     `gorm:"size:255"`
	TwoFactorSecret  string     `gorm:"size:255"`
	TwoFactorEnabled bool       `gorm:"default:false"`
	LoginAttempts    int        `gorm:"default:0"`
	LockUntil        *time.Time `gorm:"index"`
	LastActivity     time.Time  `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// identifierMatch compares username and email case-insensitively, matching
// the in-memory fallback store so both stores resolve the same identifiers.
const identifierMatch = "LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)"

// NewUserRepository creates a new database-backed user repository
func NewUserRepository(db *gorm.DB, policy domain.LockoutPolicy) domain.UserRepository {
	return &UserRepositoryImpl{db: db, policy: policy}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&DBUser{}).
		Where(identifierMatch, user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrUserAlreadyExists
	}

	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByIdentifier implements domain.UserRepository; the identifier matches
// either username or email.
func (r *UserRepositoryImpl) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).
		Where(identifierMatch, identifier, identifier).
		First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// Update implements domain.UserRepository
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	return r.db.WithContext(ctx).Save(dbUser).Error
}

// UpdateActivity implements domain.UserRepository
func (r *UserRepositoryImpl) UpdateActivity(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&DBUser{}).
		Where("id = ?", id).
		Update("last_activity", at).Error
}

// RecordFailedAttempt implements domain.UserRepository by running the lockout
// transition and persisting the result.
func (r *UserRepositoryImpl) RecordFailedAttempt(ctx context.Context, id uint, now time.Time) (*domain.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.RegisterFailure(now, r.policy)

	err = r.db.WithContext(ctx).Model(&DBUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_attempts": user.LoginAttempts,
			"lock_until":     user.LockUntil,
		}).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ClearLockState implements domain.UserRepository
func (r *UserRepositoryImpl) ClearLockState(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"lock_until":     nil,
		}).Error
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		PasswordHash:     user.PasswordHash,
		IsEmailVerified:  user.IsEmailVerified,
		EmailVerifyToken: user.EmailVerifyToken,
		TwoFactorSecret:  user.TwoFactorSecret,
		TwoFactorEnabled: user.TwoFactorEnabled,
		LoginAttempts:    user.LoginAttempts,
		LockUntil:        user.LockUntil,
		LastActivity:     user.LastActivity,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:               dbUser.ID,
		Username:         dbUser.Username,
		Email:            dbUser.Email,
		PasswordHash:     dbUser.PasswordHash,
		IsEmailVerified:  dbUser.IsEmailVerified,
		EmailVerifyToken: dbUser.EmailVerifyToken,
		TwoFactorSecret:  dbUser.TwoFactorSecret,
		TwoFactorEnabled: dbUser.TwoFactorEnabled,
		LoginAttempts:    dbUser.LoginAttempts,
		LockUntil:        dbUser.LockUntil,
		LastActivity:     dbUser.LastActivity,
		CreatedAt:        dbUser.CreatedAt,
		UpdatedAt:        dbUser.UpdatedAt,
	}
}
