package realtime

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

// Module owns the hub and is the only way events reach connections.
type Module struct {
	hub     *Hub
	handler *Handler
}

// New builds the module and subscribes the hub to every bus event.
func New(bus *event.Bus, cfg *config.Realtime, log *logger.Logger, r *helper.Responder) *Module {
	hub := NewHub(log)
	if bus != nil {
		bus.SubscribeAll(hub.Handle)
	}
	return &Module{hub: hub, handler: NewHandler(hub, cfg, log, r)}
}

func (m *Module) Name() string { return "realtime" }

func (m *Module) Hub() *Hub { return m.hub }

// Start runs the hub until ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	go m.hub.Run(ctx)
}

// RegisterRoutes mounts the upgrade route behind upgrade, which must accept
// the token query parameter, and the stats route on the authenticated group.
func (m *Module) RegisterRoutes(r *gin.RouterGroup, upgrade gin.HandlerFunc) {
	r.GET("/ws", upgrade, m.handler.Serve)
}

func (m *Module) RegisterStatsRoute(r *gin.RouterGroup) {
	r.GET("/realtime/stats", m.handler.Stats)
}
