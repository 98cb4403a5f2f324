package data

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Driver opens one kind of connection. Drivers register themselves from an
// init function, so a binary only carries the backends it imports:
//
//	func init() {
//		data.RegisterDatabaseDriver(&driver{})
//	}
type Driver interface {
	// Name is the identifier used in configuration, e.g. "postgres".
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
	Ping(ctx context.Context, conn any) error
}

// DatabaseDriver must return a *sql.DB from Connect.
type DatabaseDriver = Driver

// CacheDriver must return a *redis.Client from Connect.
type CacheDriver = Driver

type registry struct {
	kind    string
	mu      sync.RWMutex
	drivers map[string]Driver
}

func newRegistry(kind string) *registry {
	return &registry{kind: kind, drivers: make(map[string]Driver)}
}

func (r *registry) register(d Driver) {
	if d == nil {
		panic("data: " + r.kind + " driver is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.drivers[d.Name()]; dup {
		panic(fmt.Sprintf("data: %s driver %q registered twice", r.kind, d.Name()))
	}
	r.drivers[d.Name()] = d
}

func (r *registry) get(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.drivers[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("data: %s driver %q not registered (have %v); is its package imported?",
		r.kind, name, slices.Sorted(maps.Keys(r.drivers)))
}

var (
	databaseDrivers = newRegistry("database")
	cacheDrivers    = newRegistry("cache")
)

// RegisterDatabaseDriver panics on nil or duplicate registration.
func RegisterDatabaseDriver(d DatabaseDriver) { databaseDrivers.register(d) }

// RegisterCacheDriver panics on nil or duplicate registration.
func RegisterCacheDriver(d CacheDriver) { cacheDrivers.register(d) }

func GetDatabaseDriver(name string) (DatabaseDriver, error) { return databaseDrivers.get(name) }

func GetCacheDriver(name string) (CacheDriver, error) { return cacheDrivers.get(name) }
