package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

// Memory is an in-process ICache used when redis is not configured.
// Values are stored JSON encoded so callers never share pointers.
type Memory[T any] struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{items: make(map[string]memoryItem), now: time.Now}
}

func (m *Memory[T]) Get(_ context.Context, key string) (*T, error) {
	m.mu.Lock()
	item, ok := m.items[key]
	if ok && !item.expireAt.IsZero() && m.now().After(item.expireAt) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(item.value, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (m *Memory[T]) Set(_ context.Context, key string, v *T, expire ...time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	item := memoryItem{value: b}
	if len(expire) > 0 && expire[0] > 0 {
		item.expireAt = m.now().Add(expire[0])
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}
