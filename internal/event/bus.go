// Package event provides the in-process domain event bus.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ncobase/collab/concurrency/worker"
	"github.com/ncobase/collab/ctxutil"
	"github.com/ncobase/collab/logging/logger"
)

// EventType defines event types in the application.
type EventType string

const (
	// Project events
	EventTypeNewProject       EventType = "new-project"
	EventTypeProjectUpdated   EventType = "project-updated"
	EventTypeProjectDeleted   EventType = "project-deleted"
	EventTypeProjectArchived  EventType = "project-archived"
	EventTypeProjectModerated EventType = "project-moderated"

	// Application events
	EventTypeNewApplication       EventType = "new-application"
	EventTypeApplicationStatus    EventType = "application-status-changed"
	EventTypeApplicationWithdrawn EventType = "application-withdrawn"

	// Collaboration events
	EventTypeTaskCreated  EventType = "task-created"
	EventTypeTaskUpdated  EventType = "task-updated"
	EventTypeTaskDeleted  EventType = "task-deleted"
	EventTypeFileUploaded EventType = "file-uploaded"
	EventTypeFileDeleted  EventType = "file-deleted"
	EventTypeCommentAdded EventType = "comment-added"
)

// Audience describes who should be told about an event. It is used by
// subscribers that route events and is not part of the wire form.
type Audience struct {
	// Tenant broadcasts on the tenant channel.
	Tenant bool
	// Departments restricts a tenant broadcast to connections in one of the
	// listed departments and adds the department channels. Staff connections
	// without a department still receive it. Empty means every department.
	Departments []string
	// Users receive the event on their personal channel.
	Users []string
	// StaffOnly withholds a tenant broadcast from students, for projects
	// students cannot see yet.
	StaffOnly bool
	// StudentsOnly limits a tenant broadcast to students, for news staff
	// already had.
	StudentsOnly bool
	// ApplicationsOf names the faculty whose applications channel receives the event.
	ApplicationsOf string
}

// ProjectAudience is the tenant broadcast for a project event. Projects
// hidden from students reach staff only.
func ProjectAudience(visibleToAll bool, departments []string, studentVisible bool) Audience {
	a := Audience{Tenant: true, StaffOnly: !studentVisible}
	if !visibleToAll {
		a.Departments = departments
	}
	return a
}

// Event represents a domain event in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TenantID  string    `json:"tenant_id"`
	ProjectID string    `json:"project_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Audience  Audience  `json:"-"`
}

// Handler handles a published event.
type Handler func(ctx context.Context, event *Event) error

type envelope struct {
	traceID string
	userID  string
	event   *Event
}

// Bus dispatches events to subscribers on a worker pool so publishers never
// wait for delivery.
type Bus struct {
	handlers map[EventType][]Handler
	all      []Handler
	mu       sync.RWMutex
	pool     *worker.Pool
	logger   *logger.Logger
}

// NewBus creates a new event bus. The bus owns the pool it creates.
func NewBus(cfg *worker.Config, log *logger.Logger) *Bus {
	if log == nil {
		log = logger.StdLogger()
	}
	b := &Bus{
		handlers: make(map[EventType][]Handler),
		logger:   log,
	}
	b.pool = worker.NewPool(cfg, b.process)
	b.pool.OnError(func(task any, err error) {
		if env, ok := task.(*envelope); ok {
			b.logger.Error(context.Background(), "Event dispatch failed",
				"type", env.event.Type, "id", env.event.ID, "error", err)
		}
	})
	return b
}

// Start starts the dispatch workers.
func (b *Bus) Start() {
	b.pool.Start()
}

// Subscribe subscribes a handler to an event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll subscribes a handler to every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish queues an event for delivery. It never blocks; when the queue is
// full the event is dropped, logged and worker.ErrQueueFull is returned.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event is nil")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	env := &envelope{
		traceID: ctxutil.GetTraceID(ctx),
		userID:  ctxutil.GetUserID(ctx),
		event:   event,
	}
	if err := b.pool.Submit(env); err != nil {
		b.logger.Warn(ctx, "Event dropped",
			"type", event.Type,
			"id", event.ID,
			"tenant_id", event.TenantID,
			"error", err)
		return err
	}
	b.logger.Debug(ctx, "Event published", "type", event.Type, "id", event.ID)
	return nil
}

func (b *Bus) process(ctx context.Context, task any) error {
	env, ok := task.(*envelope)
	if !ok {
		return fmt.Errorf("unexpected task %T", task)
	}
	if env.traceID != "" {
		ctx = ctxutil.SetTraceID(ctx, env.traceID)
	}
	if env.userID != "" {
		ctx = ctxutil.SetUserID(ctx, env.userID)
	}
	b.dispatch(ctx, env.event)
	return nil
}

// dispatch runs every matching handler in subscription order. A failing
// handler does not stop the others.
func (b *Bus) dispatch(ctx context.Context, event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.all))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug(ctx, "No handlers for event", "type", event.Type, "id", event.ID)
		return
	}

	for i, h := range handlers {
		start := time.Now()
		if err := b.safeCall(ctx, h, event); err != nil {
			b.logger.Error(ctx, "Event handler failed",
				"type", event.Type,
				"id", event.ID,
				"handler_index", i,
				"duration", time.Since(start),
				"error", err)
		}
	}
}

func (b *Bus) safeCall(ctx context.Context, h Handler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, event)
}

// GetStats returns event bus statistics.
func (b *Bus) GetStats() map[string]any {
	b.mu.RLock()
	subscribers := make(map[string]int, len(b.handlers))
	for t, hs := range b.handlers {
		subscribers[string(t)] = len(hs)
	}
	all := len(b.all)
	b.mu.RUnlock()

	return map[string]any{
		"subscribers":     subscribers,
		"all_subscribers": all,
		"pool":            b.pool.GetMetrics(),
	}
}

// Shutdown stops accepting events and drains the queue until ctx expires.
func (b *Bus) Shutdown(ctx context.Context) {
	b.logger.Info(ctx, "Shutting down event bus", "pending_events", b.pool.GetMetrics()["pending_tasks"])
	b.pool.Stop(ctx)
}

// MarshalEvent marshals an event to JSON.
func MarshalEvent(event *Event) ([]byte, error) {
	return json.Marshal(event)
}
