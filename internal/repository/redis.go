package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still carries the caller's token
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisRepository implements LockRepository interface for Redis operations
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository instance
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// Acquire takes the lock with SET NX and an expiry
func (r *RedisRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	slog.Debug("Acquiring sweep lock", "key", key, "ttl", ttl)

	ok, err := r.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		slog.Error("Failed to acquire sweep lock", "key", key)
		return false, fmt.Errorf("error acquiring lock %s: %w", key, err)
	}

	if !ok {
		slog.Debug("Sweep lock held by another run", "key", key)
		return false, nil
	}

	slog.Debug("Sweep lock acquired", "key", key)
	return true, nil
}

// Release drops the lock if owner still holds it
func (r *RedisRepository) Release(ctx context.Context, key, owner string) error {
	slog.Debug("Releasing sweep lock", "key", key)

	deleted, err := r.client.Eval(ctx, releaseScript, []string{key}, owner).Int64()
	if err != nil {
		slog.Error("Failed to release sweep lock", "key", key)
		return fmt.Errorf("error releasing lock %s: %w", key, err)
	}

	if deleted == 0 {
		slog.Warn("Sweep lock expired or taken over before release", "key", key)
	}

	return nil
}

// NoopRepository is used when no Redis URL is configured; every acquire succeeds
type NoopRepository struct{}

// Acquire always succeeds
func (NoopRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return true, nil
}

// Release does nothing
func (NoopRepository) Release(ctx context.Context, key, owner string) error {
	return nil
}
