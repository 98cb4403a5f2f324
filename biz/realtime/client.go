package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ncobase/collab/config"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/logging/logger"
)

const (
	typeConnected = "connected"
	typePing      = "ping"
	typePong      = "pong"
)

// Client is one websocket connection.
type Client struct {
	id         string
	userID     string
	department string
	student    bool
	channels   []string

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	cfg    *config.Realtime
	logger *logger.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, actor *idstructs.Actor, cfg *config.Realtime, log *logger.Logger) *Client {
	return &Client{
		id:         uuid.New().String(),
		userID:     actor.ID,
		department: actor.Scope.Department,
		student:    actor.IsStudent() && !actor.IsStaff(),
		channels:   ChannelsFor(actor),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, max(cfg.SendBuffer, 1)),
		cfg:        cfg,
		logger:     log,
	}
}

// ChannelsFor lists the channels a connection joins.
func ChannelsFor(actor *idstructs.Actor) []string {
	var out []string
	if t := actor.Scope.TenantID; t != "" {
		out = append(out, TenantChannel(t))
		if d := actor.Scope.Department; d != "" {
			out = append(out, DepartmentChannel(t, d))
		}
	}
	out = append(out, UserChannel(actor.ID))
	if actor.IsFaculty() {
		out = append(out, ApplicationsChannel(actor.ID))
	}
	return out
}

// readPump handles pongs and client pings until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn(context.Background(), "Realtime read error", "client_id", c.id, "error", err)
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug(context.Background(), "Ignoring malformed client message", "client_id", c.id)
			continue
		}
		if msg.Type == typePing {
			c.enqueue(encode(&message{Type: typePong, Timestamp: time.Now().UTC()}))
		}
	}
}

// enqueue sends a control frame without blocking.
func (c *Client) enqueue(data []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn(context.Background(), "Realtime write error", "client_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
