package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/mindmapsvc/domain"
)

// PendingSecretStoreImpl holds unconfirmed two-factor secrets in Redis, keyed
// by the caller's session so an unconfirmed secret is never visible to
// another session. Slots expire on their own if setup is abandoned.
type PendingSecretStoreImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPendingSecretStore creates a Redis-backed pending secret store
func NewPendingSecretStore(client *redis.Client, ttl time.Duration) domain.PendingSecretStore {
	return &PendingSecretStoreImpl{
		client: client,
		prefix: "2fa:pending:",
		ttl:    ttl,
	}
}

// Put implements domain.PendingSecretStore
func (s *PendingSecretStoreImpl) Put(ctx context.Context, sessionID, secret string) error {
	return s.client.Set(ctx, s.prefix+sessionID, secret, s.ttl).Err()
}

// Get implements domain.PendingSecretStore
func (s *PendingSecretStoreImpl) Get(ctx context.Context, sessionID string) (string, error) {
	secret, err := s.client.Get(ctx, s.prefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNoPendingSetup
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}

// Delete implements domain.PendingSecretStore
func (s *PendingSecretStoreImpl) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}
