package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/database"
)

const keyPrefix = "storefront:"

// Storage implements storage.Backend on top of Redis. A zero TTL keeps
// entries forever.
type Storage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStorage creates a new Redis-backed storage backend.
func NewStorage(client *redis.Client, ttl time.Duration) *Storage {
	return &Storage{
		client: client,
		ttl:    ttl,
	}
}

func redisKey(namespace, key string) string {
	return keyPrefix + namespace + ":" + key
}

// Get reads a value from Redis.
func (s *Storage) Get(ctx context.Context, namespace, key string) (_ string, _ bool, err error) {
	k := redisKey(namespace, key)
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "GetValue", "GET "+k)
	defer func() { end(err) }()

	val, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes a value to Redis with the configured TTL.
func (s *Storage) Set(ctx context.Context, namespace, key, value string) (err error) {
	k := redisKey(namespace, key)
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "SetValue", "SET "+k)
	defer func() { end(err) }()

	if err := s.client.Set(ctx, k, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from Redis.
func (s *Storage) Delete(ctx context.Context, namespace, key string) (err error) {
	k := redisKey(namespace, key)
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "DeleteValue", "DEL "+k)
	defer func() { end(err) }()

	if err := s.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
