// Package handler exposes comment endpoints.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/comment/service"
	"github.com/ncobase/collab/biz/comment/structs"
	"github.com/ncobase/collab/helper"
)

type Handler struct {
	svc *service.Service
	r   *helper.Responder
}

func New(svc *service.Service, r *helper.Responder) *Handler {
	return &Handler{svc: svc, r: r}
}

// List handles GET /v1/projects/:id/comments?task_id=.
func (h *Handler) List(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var taskID *string
	if v := c.Query("task_id"); v != "" {
		taskID = &v
	}
	out, err := h.svc.List(c.Request.Context(), actor, c.Param("id"), taskID)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, out)
}

// Create handles POST /v1/projects/:id/comments.
func (h *Handler) Create(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.CreateCommentRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	comment, err := h.svc.Create(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, comment)
}
