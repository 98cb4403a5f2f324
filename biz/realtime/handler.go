package realtime

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/logging/logger"
)

// Handler upgrades authenticated requests and serves hub stats.
type Handler struct {
	hub      *Hub
	cfg      *config.Realtime
	upgrader websocket.Upgrader
	r        *helper.Responder
	logger   *logger.Logger
}

func NewHandler(hub *Hub, cfg *config.Realtime, log *logger.Logger, r *helper.Responder) *Handler {
	h := &Handler{hub: hub, cfg: cfg, r: r, logger: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

// originChecker allows listed origins; "*" allows any. With no list only
// same-host requests and non-browser clients pass.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		if len(allowed) > 0 {
			return false
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Serve handles GET /v1/ws. The route runs behind the upgrade authenticator,
// so the actor is known before any channel is joined.
func (h *Handler) Serve(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn(c.Request.Context(), "Websocket upgrade failed", "error", err, "user_id", actor.ID)
		return
	}

	client := newClient(h.hub, conn, actor, h.cfg, h.logger)
	// The greeting is queued before registration so it is always the first frame.
	client.send <- encode(&message{Type: typeConnected, Channels: client.channels, Timestamp: time.Now().UTC()})
	h.hub.register(client)

	go client.writePump()
	go client.readPump()
}

// Stats handles GET /v1/realtime/stats for admins.
func (h *Handler) Stats(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	if !actor.IsAdmin() {
		h.r.Error(c, ecode.NewForbidden("admin role required"))
		return
	}
	h.r.OK(c, h.hub.Stats())
}
