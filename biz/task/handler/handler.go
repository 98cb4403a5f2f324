// Package handler exposes task endpoints.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/task/service"
	"github.com/ncobase/collab/biz/task/structs"
	"github.com/ncobase/collab/helper"
)

type Handler struct {
	svc *service.Service
	r   *helper.Responder
}

func New(svc *service.Service, r *helper.Responder) *Handler {
	return &Handler{svc: svc, r: r}
}

// List handles GET /v1/projects/:id/tasks.
func (h *Handler) List(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	tasks, err := h.svc.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, tasks)
}

// Create handles POST /v1/projects/:id/tasks.
func (h *Handler) Create(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.CreateTaskRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, t)
}

// Update handles PUT /v1/tasks/:id.
func (h *Handler) Update(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.UpdateTaskRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, t)
}

// Delete handles DELETE /v1/tasks/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.NoContent(c)
}
