// Package application wires the application module: repository, service and
// routes.
package application

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/application/data/repository"
	"github.com/ncobase/collab/biz/application/handler"
	"github.com/ncobase/collab/biz/application/service"
	"github.com/ncobase/collab/biz/application/structs"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

type Application = structs.Application
type ApplicationRepository = repository.ApplicationRepository

type Module struct {
	repo    ApplicationRepository
	service *service.Service
	handler *handler.Handler
}

func New(repo ApplicationRepository, projects repository.ProjectReader, bus *event.Bus, log *logger.Logger, r *helper.Responder) *Module {
	svc := service.NewService(repo, projects, bus, log)
	return &Module{repo: repo, service: svc, handler: handler.New(svc, r)}
}

func (m *Module) Name() string { return "application" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) Repository() ApplicationRepository { return m.repo }

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/projects/:id/applications", m.handler.Apply)
	r.GET("/projects/:id/applications", m.handler.ListForProject)

	apps := r.Group("/applications")
	{
		apps.GET("/mine", m.handler.Mine)
		apps.PUT("/:id/status", m.handler.Decide)
		apps.DELETE("/:id", m.handler.Withdraw)
	}
}

func (m *Module) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/applications", m.handler.AdminList)
}
