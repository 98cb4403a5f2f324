package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolProcessesTasks(t *testing.T) {
	var sum atomic.Int64
	pool := NewPool(&Config{MaxWorkers: 4, QueueSize: 100}, func(ctx context.Context, task any) error {
		sum.Add(int64(task.(int)))
		return nil
	})
	pool.Start()

	for i := 1; i <= 10; i++ {
		if err := pool.Submit(i); err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Stop(ctx)

	if got := sum.Load(); got != 55 {
		t.Fatalf("sum = %d, want 55", got)
	}
	if got := pool.GetMetrics()["completed_tasks"]; got != 10 {
		t.Fatalf("completed = %d", got)
	}
}

func TestPoolQueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(&Config{MaxWorkers: 1, QueueSize: 1}, func(ctx context.Context, task any) error {
		<-block
		return nil
	})
	pool.Start()
	defer func() {
		close(block)
		pool.Stop(context.Background())
	}()

	// one running, one queued, then full
	var full bool
	for i := 0; i < 10; i++ {
		if err := pool.Submit(i); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Fatal("expected ErrQueueFull")
	}
}

func TestPoolSubmitAfterStop(t *testing.T) {
	pool := NewPool(nil, func(context.Context, any) error { return nil })
	pool.Start()
	pool.Stop(context.Background())

	if err := pool.Submit(1); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("err = %v, want ErrPoolClosed", err)
	}
	pool.Stop(context.Background())
}

func TestPoolReportsErrorsAndPanics(t *testing.T) {
	var mu sync.Mutex
	var errs []error
	pool := NewPool(&Config{MaxWorkers: 1, QueueSize: 4}, func(ctx context.Context, task any) error {
		switch task {
		case "fail":
			return errors.New("boom")
		case "panic":
			panic("oops")
		}
		return nil
	})
	pool.OnError(func(task any, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	pool.Start()

	_ = pool.Submit("fail")
	_ = pool.Submit("panic")
	_ = pool.Submit("ok")
	pool.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 2 {
		t.Fatalf("errors = %v", errs)
	}
	m := pool.GetMetrics()
	if m["failed_tasks"] != 2 || m["completed_tasks"] != 1 {
		t.Fatalf("metrics = %v", m)
	}
}

func TestPoolTaskTimeout(t *testing.T) {
	var sawDeadline atomic.Bool
	pool := NewPool(&Config{MaxWorkers: 1, QueueSize: 1, TaskTimeout: 10 * time.Millisecond},
		func(ctx context.Context, task any) error {
			<-ctx.Done()
			sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
			return ctx.Err()
		})
	pool.Start()
	_ = pool.Submit(1)
	pool.Stop(context.Background())

	if !sawDeadline.Load() {
		t.Fatal("task context was not bounded by TaskTimeout")
	}
}
