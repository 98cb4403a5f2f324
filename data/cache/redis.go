// Package cache stores JSON encoded values in redis or in process.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICache is implemented by Cache and Memory. Get returns nil, nil on a miss.
type ICache[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Set(ctx context.Context, key string, v *T, ttl ...time.Duration) error
	Delete(ctx context.Context, key string) error
}

var errNoClient = errors.New("cache: redis client is nil")

// Cache keeps values in redis under "<prefix>:<key>".
type Cache[T any] struct {
	rc     redis.UniversalClient
	prefix string
}

func NewCache[T any](rc redis.UniversalClient, prefix string) *Cache[T] {
	return &Cache[T]{rc: rc, prefix: prefix}
}

// Key returns the redis key for key.
func (c *Cache[T]) Key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *Cache[T]) Get(ctx context.Context, key string) (*T, error) {
	if c.rc == nil {
		return nil, errNoClient
	}
	raw, err := c.rc.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return &v, nil
}

// Set stores v. Without a ttl the entry never expires.
func (c *Cache[T]) Set(ctx context.Context, key string, v *T, ttl ...time.Duration) error {
	if c.rc == nil {
		return errNoClient
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	var exp time.Duration
	if len(ttl) > 0 {
		exp = ttl[0]
	}
	return c.rc.Set(ctx, c.Key(key), raw, exp).Err()
}

func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	if c.rc == nil {
		return errNoClient
	}
	return c.rc.Del(ctx, c.Key(key)).Err()
}
