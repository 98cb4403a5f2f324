// Package task wires the task module.
package task

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/membership"
	"github.com/ncobase/collab/biz/task/data/repository"
	"github.com/ncobase/collab/biz/task/handler"
	"github.com/ncobase/collab/biz/task/service"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/logging/logger"
)

type Module struct {
	service *service.Service
	handler *handler.Handler
}

func New(repo repository.TaskRepository, gate *membership.Gate, log *logger.Logger, r *helper.Responder) *Module {
	svc := service.NewService(repo, gate, log)
	return &Module{service: svc, handler: handler.New(svc, r)}
}

func (m *Module) Name() string { return "task" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/projects/:id/tasks", m.handler.List)
	r.POST("/projects/:id/tasks", m.handler.Create)
	r.PUT("/tasks/:id", m.handler.Update)
	r.DELETE("/tasks/:id", m.handler.Delete)
}
