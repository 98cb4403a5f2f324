// Package worker runs queued tasks on a bounded set of goroutines. Submit
// never blocks: a full queue rejects the task.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull  = errors.New("task queue is full")
	ErrPoolClosed = errors.New("worker pool is stopped")
)

// Config sizes a pool.
type Config struct {
	MaxWorkers  int           // goroutines draining the queue
	QueueSize   int           // tasks waiting beyond the running ones
	TaskTimeout time.Duration // per task deadline, 0 disables it
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:  8,
		QueueSize:   1024,
		TaskTimeout: 10 * time.Second,
	}
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	switch {
	case cfg.MaxWorkers < 1:
		return errors.New("max workers must be greater than 0")
	case cfg.QueueSize < 0:
		return errors.New("queue size must be greater than or equal to 0")
	case cfg.TaskTimeout < 0:
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Handler processes one task taken from the queue.
type Handler func(ctx context.Context, task any) error

// ErrorHandler is told about failed or panicking tasks.
type ErrorHandler func(task any, err error)

// Pool feeds submitted tasks to a Handler.
type Pool struct {
	cfg     Config
	handle  Handler
	onError ErrorHandler

	tasks  chan any
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool

	pending, completed, failed, dropped atomic.Int64
}

// NewPool creates a pool. An invalid or nil cfg falls back to DefaultConfig.
//
//	pool := worker.NewPool(cfg, handle)
//	pool.Start()
//	defer pool.Stop(ctx)
func NewPool(cfg *Config, handle Handler) *Pool {
	if cfg == nil || cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:    *cfg,
		handle: handle,
		tasks:  make(chan any, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnError sets a handler for failed tasks. Call before Start.
func (p *Pool) OnError(h ErrorHandler) {
	p.onError = h
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.cfg.MaxWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.run(task)
			}
		}()
	}
}

// Stop stops accepting tasks, drains the queue and waits for workers until
// ctx expires, after which in-flight tasks are cancelled.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	p.cancel()
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		p.pending.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

func (p *Pool) run(task any) {
	p.pending.Add(-1)
	err := p.call(task)
	if err == nil {
		p.completed.Add(1)
		return
	}
	p.failed.Add(1)
	if p.onError != nil {
		p.onError(task, err)
	}
}

// call invokes the handler under the task deadline and turns a panic into
// an error.
func (p *Pool) call(task any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	ctx := p.ctx
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}
	return p.handle(ctx, task)
}

// GetMetrics returns queue and outcome counters.
func (p *Pool) GetMetrics() map[string]int64 {
	return map[string]int64{
		"pending_tasks":   p.pending.Load(),
		"completed_tasks": p.completed.Load(),
		"failed_tasks":    p.failed.Load(),
		"dropped_tasks":   p.dropped.Load(),
	}
}
