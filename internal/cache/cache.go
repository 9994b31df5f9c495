// Package cache stores gateway responses as JSON, in process or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache is a JSON value cache. Get reports whether key was found and decodes
// the stored value into dst.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Key joins parts into a cache key, normalizing case and surrounding space.
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "travel:" + strings.Join(norm, ":")
}

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns a cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	cleanup := ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Memory{c: gocache.New(ttl, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	v, found := m.c.Get(key)
	if !found {
		return false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return false, fmt.Errorf("cache entry %s has type %T", key, v)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	m.c.Set(key, b, gocache.DefaultExpiration)
	return nil
}

// Redis is a cache shared between gateway instances.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects lazily to addr.
func NewRedis(addr string, ttl time.Duration) *Redis {
	return NewRedisClient(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

func NewRedisClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
