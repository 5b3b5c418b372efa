package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the shared Redis connection used for pending two-factor
// secrets and rate-limit counters.
type RedisClient struct{ *redis.Client }

func NewRedis(addr, pass string, db int) *RedisClient {
	return &RedisClient{redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (c *RedisClient) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }
