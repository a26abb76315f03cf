package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/models/entities"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheInterface using Redis, so that several
// server processes share one snapshot and see each other's invalidations.
type RedisCacheService struct {
	client *redis.Client
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// RedisOptions holds the connection settings of the shared cache
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCacheService creates a new Redis-based cache service
func NewRedisCacheService(ctx context.Context, opts RedisOptions) (*RedisCacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Test connection
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client), nil
}

// NewRedisCacheServiceWithClient wraps an existing client
func NewRedisCacheServiceWithClient(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{client: client}
}

// SetSnapshot stores the snapshot as JSON with the given duration
func (r *RedisCacheService) SetSnapshot(ctx context.Context, key string, snap *entities.TableSnapshot, duration time.Duration) {
	data, err := json.Marshal(snap)
	if err != nil {
		// Log error but don't crash
		logging.Warn("Redis cache: failed to marshal snapshot", "key", key, "error", err.Error())
		return
	}

	if err := r.client.Set(ctx, key, data, duration).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err.Error())
	}
}

// GetSnapshot retrieves a snapshot from Redis by key
func (r *RedisCacheService) GetSnapshot(ctx context.Context, key string) (*entities.TableSnapshot, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Key not found
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err.Error())
		return nil, false
	}

	var snap entities.TableSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logging.Warn("Redis cache: failed to unmarshal snapshot", "key", key, "error", err.Error())
		return nil, false
	}

	return &snap, true
}

// Delete removes a value from Redis by key
func (r *RedisCacheService) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err.Error())
	}
}

func (r *RedisCacheService) Name() string {
	return "redis"
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
