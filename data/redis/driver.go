// Package redis registers the redis cache driver with the data package.
//
//	import _ "github.com/ncobase/collab/data/redis"
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/data"
	"github.com/redis/go-redis/v9"
)

type driver struct{}

func (d *driver) Name() string { return "redis" }

// Connect opens and pings a client configured from a *config.Redis. The
// client backs the identity scope cache.
func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	c, ok := cfg.(*config.Redis)
	if !ok {
		return nil, fmt.Errorf("redis: expected *config.Redis, got %T", cfg)
	}
	if c.Addr == "" {
		return nil, errors.New("redis: data.redis.addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		ClientName:   "collab",
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		DialTimeout:  c.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", c.Addr, err)
	}
	return client, nil
}

func (d *driver) Close(conn any) error {
	client, err := asClient(conn)
	if err != nil {
		return err
	}
	return client.Close()
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	client, err := asClient(conn)
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

func asClient(conn any) (*redis.Client, error) {
	client, ok := conn.(*redis.Client)
	if !ok {
		return nil, fmt.Errorf("redis: expected *redis.Client, got %T", conn)
	}
	return client, nil
}

func init() {
	data.RegisterCacheDriver(&driver{})
}
