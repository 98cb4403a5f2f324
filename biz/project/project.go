// Package project wires the project module: repository, service and routes.
package project

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/project/data/repository"
	"github.com/ncobase/collab/biz/project/handler"
	"github.com/ncobase/collab/biz/project/service"
	"github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

type Project = structs.Project
type ProjectRepository = repository.ProjectRepository

type Module struct {
	repo    ProjectRepository
	service *service.Service
	handler *handler.Handler
}

func New(repo ProjectRepository, accepted service.AcceptedCounter, bus *event.Bus, log *logger.Logger, r *helper.Responder) *Module {
	svc := service.NewService(repo, accepted, bus, log)
	return &Module{repo: repo, service: svc, handler: handler.New(svc, r)}
}

func (m *Module) Name() string { return "project" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) Repository() ProjectRepository { return m.repo }

// RegisterRoutes mounts the member-facing routes on an authenticated group.
func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.POST("", m.handler.Create)
		projects.GET("", m.handler.List)
		projects.GET("/mine", m.handler.Mine)
		projects.GET("/:id", m.handler.Get)
		projects.PUT("/:id", m.handler.Update)
		projects.DELETE("/:id", m.handler.Delete)
		projects.PUT("/:id/progress", m.handler.Progress)
	}
}

// RegisterAdminRoutes mounts the admin listing on an admin-only group.
func (m *Module) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/projects", m.handler.AdminList)
}
