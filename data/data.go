package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/ncobase/collab/config"
	"github.com/redis/go-redis/v9"
)

type ContextKey string

const (
	ContextKeyTransaction ContextKey = "tx"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Data holds the SQL and redis connections.
type Data struct {
	db    *sql.DB
	redis *redis.Client

	dbDriver    DatabaseDriver
	cacheDriver CacheDriver

	mu     sync.RWMutex
	closed bool
}

// New opens the configured connections. Redis is optional and skipped when
// no address is set.
func New(ctx context.Context, cfg *config.Data) (*Data, func(), error) {
	if cfg == nil || cfg.Database == nil {
		return nil, nil, errors.New("data: database config is required")
	}

	d := &Data{}
	dbDriver, err := GetDatabaseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}
	conn, err := dbDriver.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	db, ok := conn.(*sql.DB)
	if !ok {
		_ = dbDriver.Close(conn)
		return nil, nil, fmt.Errorf("data: driver %q returned %T, expected *sql.DB", dbDriver.Name(), conn)
	}
	d.db, d.dbDriver = db, dbDriver

	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		cacheDriver, err := GetCacheDriver("redis")
		if err != nil {
			d.Close()
			return nil, nil, err
		}
		rc, err := cacheDriver.Connect(ctx, cfg.Redis)
		if err != nil {
			d.Close()
			return nil, nil, err
		}
		d.redis, d.cacheDriver = rc.(*redis.Client), cacheDriver
	}

	return d, func() { d.Close() }, nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB, rc *redis.Client) *Data {
	return &Data{db: db, redis: rc}
}

// DB returns the connection pool.
func (d *Data) DB() *sql.DB { return d.db }

// Redis returns the redis client, nil when not configured.
func (d *Data) Redis() *redis.Client { return d.redis }

// Querier returns the transaction bound to ctx, or the pool.
func (d *Data) Querier(ctx context.Context) Querier {
	if tx, err := GetTx(ctx); err == nil {
		return tx
	}
	return d.db
}

// Close releases every connection. It is safe to call more than once.
func (d *Data) Close() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *Data) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}
