package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/expenseshare/internal/models"
)

const keyPrefix = "expenseshare:user:"

// Redis stores profiles as JSON values with a fixed TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisWithClient(rdb, ttl), nil
}

// NewRedisWithClient wraps an existing client. The Redis owns it from then on.
func NewRedisWithClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

// GetUser retrieves a cached profile.
func (r *Redis) GetUser(ctx context.Context, userID string) (*models.User, bool, error) {
	val, err := r.rdb.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, true, nil
}

// SetUser caches a profile for the configured TTL.
func (r *Redis) SetUser(ctx context.Context, user *models.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.rdb.Set(ctx, userKey(user.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// DeleteUser evicts a profile.
func (r *Redis) DeleteUser(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached user: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
