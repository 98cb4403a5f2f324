// Package admin wires the administration module.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/admin/handler"
	"github.com/ncobase/collab/biz/admin/service"
	appservice "github.com/ncobase/collab/biz/application/service"
	auditservice "github.com/ncobase/collab/biz/audit/service"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

type Module struct {
	service *service.Service
	handler *handler.Handler
}

func New(
	projects projectrepo.ProjectRepository,
	applications *appservice.Service,
	appCounts service.ApplicationCounter,
	audit *auditservice.Service,
	bus *event.Bus,
	log *logger.Logger,
	r *helper.Responder,
) *Module {
	svc := service.NewService(projects, applications, appCounts, audit, bus, log)
	return &Module{service: svc, handler: handler.New(svc, r)}
}

func (m *Module) Name() string { return "admin" }

func (m *Module) Service() *service.Service { return m.service }

// RegisterAdminRoutes mounts on the /admin group.
func (m *Module) RegisterAdminRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.PUT("/bulk-moderate", m.handler.BulkModerate)
		projects.PUT("/:id/moderate", m.handler.Moderate)
		projects.PUT("/:id/reopen", m.handler.Reopen)
		projects.PUT("/:id/progress", m.handler.Progress)
		projects.DELETE("/:id", m.handler.Archive)
	}
	r.PUT("/applications/:id/status", m.handler.OverrideApplication)
	r.GET("/analytics", m.handler.Analytics)
	r.GET("/audit-logs", m.handler.AuditLogs)
}
