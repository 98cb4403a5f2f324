// Package realtime pushes domain events to connected clients over
// websockets. Each connection authenticates once during the upgrade and then
// listens on a fixed set of channels derived from its identity.
package realtime

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

// TenantChannel carries project events for a tenant.
func TenantChannel(tenantID string) string { return "tenant:" + tenantID }

// DepartmentChannel carries project events restricted to a department.
func DepartmentChannel(tenantID, dept string) string {
	return "tenant:" + tenantID + ":dept:" + dept
}

// UserChannel carries events addressed to one user.
func UserChannel(userID string) string { return "user:" + userID }

// ApplicationsChannel carries application events for a project author.
func ApplicationsChannel(userID string) string { return "user:" + userID + ":applications" }

// Hub tracks live clients by channel and routes events to them.
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool
	mu       sync.RWMutex
	logger   *logger.Logger

	delivered uint64
	dropped   uint64
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Hub{
		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),
		logger:   log,
	}
}

// Run logs hub stats periodically and closes every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info(context.Background(), "Realtime hub stopped")
			return
		case <-ticker.C:
			h.mu.RLock()
			clients, channels := len(h.clients), len(h.channels)
			h.mu.RUnlock()
			h.logger.Debug(ctx, "Realtime hub stats", "clients", clients, "channels", channels)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	for _, ch := range c.channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[*Client]bool)
		}
		h.channels[ch][c] = true
	}
	h.logger.Info(context.Background(), "Realtime client registered",
		"client_id", c.id, "user_id", c.userID, "channels", c.channels, "total_clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for _, ch := range c.channels {
		if members, ok := h.channels[ch]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	close(c.send)
	h.logger.Info(context.Background(), "Realtime client unregistered",
		"client_id", c.id, "user_id", c.userID, "total_clients", len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

// Handle is the event bus subscriber.
func (h *Hub) Handle(ctx context.Context, ev *event.Event) error {
	h.Deliver(ctx, ev)
	return nil
}

// Deliver routes ev to its audience. Each client receives it at most once.
// A client with a full send buffer misses the event.
func (h *Hub) Deliver(ctx context.Context, ev *event.Event) int {
	data, err := event.MarshalEvent(ev)
	if err != nil {
		h.logger.Error(ctx, "Failed to marshal event", "type", ev.Type, "error", err)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := h.targets(ev)
	sent := 0
	for c := range targets {
		select {
		case c.send <- data:
			sent++
			h.delivered++
		default:
			h.dropped++
			h.logger.Warn(ctx, "Realtime send buffer full, event dropped",
				"client_id", c.id, "user_id", c.userID, "type", ev.Type)
		}
	}
	return sent
}

// targets resolves the audience to a client set. Callers hold h.mu.
func (h *Hub) targets(ev *event.Event) map[*Client]struct{} {
	out := make(map[*Client]struct{})
	a := ev.Audience

	if a.Tenant && ev.TenantID != "" {
		add := func(ch string) {
			for c := range h.channels[ch] {
				if c.acceptsProjectEvent(a) {
					out[c] = struct{}{}
				}
			}
		}
		add(TenantChannel(ev.TenantID))
		for _, d := range a.Departments {
			add(DepartmentChannel(ev.TenantID, d))
		}
	}
	for _, id := range a.Users {
		for c := range h.channels[UserChannel(id)] {
			out[c] = struct{}{}
		}
	}
	if a.ApplicationsOf != "" {
		for c := range h.channels[ApplicationsChannel(a.ApplicationsOf)] {
			out[c] = struct{}{}
		}
	}
	return out
}

// acceptsProjectEvent filters tenant broadcasts by role and department. A
// staff connection with no department, such as a tenant admin, sees every
// department.
func (c *Client) acceptsProjectEvent(a event.Audience) bool {
	if (c.student && a.StaffOnly) || (!c.student && a.StudentsOnly) {
		return false
	}
	if len(a.Departments) == 0 {
		return true
	}
	if c.department == "" {
		return !c.student
	}
	return slices.Contains(a.Departments, c.department)
}

// Stats reports connection and delivery counters.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sizes := make(map[string]int, len(h.channels))
	for ch, members := range h.channels {
		sizes[ch] = len(members)
	}
	return map[string]any{
		"total_clients":  len(h.clients),
		"total_channels": len(h.channels),
		"channels":       sizes,
		"delivered":      h.delivered,
		"dropped":        h.dropped,
	}
}

// message is a control frame exchanged with clients.
type message struct {
	Type      string    `json:"type"`
	Channels  []string  `json:"channels,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func encode(m *message) []byte {
	b, _ := json.Marshal(m)
	return b
}
