package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/you/mindmapsvc/domain"
)

// MemoryUserRepository is the in-memory fallback credential store. Records do
// not survive a process restart. Unlike the database store it is guarded by a
// mutex because requests run on concurrent goroutines.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	seq    uint
	users  []*domain.User
	policy domain.LockoutPolicy
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository(policy domain.LockoutPolicy) *MemoryUserRepository {
	return &MemoryUserRepository{policy: policy}
}

// Create implements domain.UserRepository
func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return domain.ErrUserAlreadyExists
		}
	}

	r.seq++
	now := time.Now()
	stored := user.Clone()
	stored.ID = r.seq
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users = append(r.users, stored)

	user.ID = stored.ID
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

// FindByIdentifier implements domain.UserRepository
func (r *MemoryUserRepository) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// FindByID implements domain.UserRepository
func (r *MemoryUserRepository) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.lookup(id)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Update implements domain.UserRepository
func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.lookup(user.ID)
	if stored == nil {
		return domain.ErrUserNotFound
	}

	updated := user.Clone()
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = updated
			break
		}
	}
	return nil
}

// UpdateActivity implements domain.UserRepository
func (r *MemoryUserRepository) UpdateActivity(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.lookup(id)
	if stored == nil {
		return domain.ErrUserNotFound
	}
	stored.LastActivity = at
	return nil
}

// RecordFailedAttempt implements domain.UserRepository
func (r *MemoryUserRepository) RecordFailedAttempt(_ context.Context, id uint, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.lookup(id)
	if stored == nil {
		return nil, domain.ErrUserNotFound
	}
	stored.RegisterFailure(now, r.policy)
	return stored.Clone(), nil
}

// ClearLockState implements domain.UserRepository
func (r *MemoryUserRepository) ClearLockState(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.lookup(id)
	if stored == nil {
		return domain.ErrUserNotFound
	}
	stored.ClearLock()
	return nil
}

// lookup must be called with the mutex held.
func (r *MemoryUserRepository) lookup(id uint) *domain.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}
