// Package attachment wires the attachment module.
package attachment

import (
	"github.com/casdoor/oss"
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/attachment/data/repository"
	"github.com/ncobase/collab/biz/attachment/handler"
	"github.com/ncobase/collab/biz/attachment/service"
	"github.com/ncobase/collab/biz/membership"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/logging/logger"
)

type Module struct {
	service *service.Service
	handler *handler.Handler
}

func New(repo repository.AttachmentRepository, gate *membership.Gate, store oss.StorageInterface, maxUpload int64, log *logger.Logger, r *helper.Responder) *Module {
	svc := service.NewService(repo, gate, store, log)
	return &Module{service: svc, handler: handler.New(svc, r, maxUpload)}
}

func (m *Module) Name() string { return "attachment" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/projects/:id/attachments", m.handler.List)
	r.POST("/projects/:id/attachments", m.handler.Create)
	r.GET("/attachments/:id/download", m.handler.Download)
	r.DELETE("/attachments/:id", m.handler.Delete)
}
