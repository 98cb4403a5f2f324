// Package comment wires the comment module.
package comment

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/comment/data/repository"
	"github.com/ncobase/collab/biz/comment/handler"
	"github.com/ncobase/collab/biz/comment/service"
	"github.com/ncobase/collab/biz/membership"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/logging/logger"
)

type Module struct {
	service *service.Service
	handler *handler.Handler
}

func New(repo repository.CommentRepository, tasks service.TaskReader, gate *membership.Gate, log *logger.Logger, r *helper.Responder) *Module {
	svc := service.NewService(repo, tasks, gate, log)
	return &Module{service: svc, handler: handler.New(svc, r)}
}

func (m *Module) Name() string { return "comment" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/projects/:id/comments", m.handler.List)
	r.POST("/projects/:id/comments", m.handler.Create)
}
