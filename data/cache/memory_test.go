package cache

import (
	"context"
	"testing"
	"time"
)

type entry struct {
	Name string `json:"name"`
}

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[entry]()

	if v, err := c.Get(ctx, "k"); v != nil || err != nil {
		t.Fatalf("miss = %v, %v", v, err)
	}
	if err := c.Set(ctx, "k", &entry{Name: "a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v == nil || v.Name != "a" {
		t.Fatalf("Get = %v, %v", v, err)
	}
	_ = c.Delete(ctx, "k")
	if v, _ := c.Get(ctx, "k"); v != nil {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory[entry]()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", &entry{Name: "a"}, time.Minute)
	now = now.Add(59 * time.Second)
	if v, _ := c.Get(ctx, "k"); v == nil {
		t.Fatal("expired too early")
	}
	now = now.Add(2 * time.Second)
	if v, _ := c.Get(ctx, "k"); v != nil {
		t.Fatal("expected expiry")
	}
}

func TestCacheKeyPrefix(t *testing.T) {
	c := NewCache[entry](nil, "scope")
	if got := c.Key("u1"); got != "scope:u1" {
		t.Fatalf("Key = %q", got)
	}
	if _, err := c.Get(context.Background(), "u1"); err == nil {
		t.Fatal("expected error for nil client")
	}
}
