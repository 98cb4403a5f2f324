package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ncobase/collab/concurrency/worker"
	"github.com/ncobase/collab/ctxutil"
	"github.com/ncobase/collab/logging/logger"
)

func TestBusDeliversToTypedAndCatchAllHandlers(t *testing.T) {
	bus := NewBus(&worker.Config{MaxWorkers: 1, QueueSize: 8}, logger.NewNop())

	var mu sync.Mutex
	var got []string
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(EventTypeNewProject, func(ctx context.Context, e *Event) error {
		defer wg.Done()
		mu.Lock()
		got = append(got, "typed:"+ctxutil.GetTraceID(ctx))
		mu.Unlock()
		return nil
	})
	bus.SubscribeAll(func(ctx context.Context, e *Event) error {
		defer wg.Done()
		mu.Lock()
		got = append(got, "all:"+string(e.Type))
		mu.Unlock()
		return errors.New("ignored")
	})
	bus.Start()
	defer bus.Shutdown(context.Background())

	ctx := ctxutil.SetTraceID(context.Background(), "trace-1")
	e := &Event{Type: EventTypeNewProject, TenantID: "t1"}
	if err := bus.Publish(ctx, e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatal("Publish did not stamp the event")
	}

	waitTimeout(t, &wg)
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "typed:trace-1" || got[1] != "all:new-project" {
		t.Fatalf("got %v", got)
	}
}

func TestBusPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := NewBus(&worker.Config{MaxWorkers: 1, QueueSize: 1}, logger.NewNop())
	block := make(chan struct{})
	bus.SubscribeAll(func(ctx context.Context, e *Event) error {
		<-block
		return nil
	})
	bus.Start()
	defer func() {
		close(block)
		bus.Shutdown(context.Background())
	}()

	done := make(chan error, 1)
	go func() {
		var last error
		for i := 0; i < 10; i++ {
			if err := bus.Publish(context.Background(), &Event{Type: EventTypeTaskCreated}); err != nil {
				last = err
			}
		}
		done <- last
	}()

	select {
	case err := <-done:
		if !errors.Is(err, worker.ErrQueueFull) {
			t.Fatalf("err = %v, want ErrQueueFull", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestBusRecoversHandlerPanic(t *testing.T) {
	bus := NewBus(&worker.Config{MaxWorkers: 1, QueueSize: 4}, logger.NewNop())
	var wg sync.WaitGroup
	wg.Add(1)
	bus.SubscribeAll(func(ctx context.Context, e *Event) error { panic("boom") })
	bus.SubscribeAll(func(ctx context.Context, e *Event) error {
		wg.Done()
		return nil
	})
	bus.Start()
	defer bus.Shutdown(context.Background())

	_ = bus.Publish(context.Background(), &Event{Type: EventTypeCommentAdded})
	waitTimeout(t, &wg)
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}
}
