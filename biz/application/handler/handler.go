// Package handler exposes application endpoints.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/application/service"
	"github.com/ncobase/collab/biz/application/structs"
	"github.com/ncobase/collab/helper"
)

type Handler struct {
	svc *service.Service
	r   *helper.Responder
}

func New(svc *service.Service, r *helper.Responder) *Handler {
	return &Handler{svc: svc, r: r}
}

// Apply handles POST /v1/projects/:id/applications.
func (h *Handler) Apply(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.ApplyRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	app, err := h.svc.Apply(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, app)
}

// ListForProject handles GET /v1/projects/:id/applications.
func (h *Handler) ListForProject(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var params structs.ListParams
	if err := helper.ShouldBindQuery(c, &params); err != nil {
		h.r.Error(c, err)
		return
	}
	result, err := h.svc.ListForProject(c.Request.Context(), actor, c.Param("id"), &params)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}

// Mine handles GET /v1/applications/mine.
func (h *Handler) Mine(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var params structs.ListParams
	if err := helper.ShouldBindQuery(c, &params); err != nil {
		h.r.Error(c, err)
		return
	}
	result, err := h.svc.Mine(c.Request.Context(), actor, &params)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}

// AdminList handles GET /v1/admin/applications.
func (h *Handler) AdminList(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var params structs.ListParams
	if err := helper.ShouldBindQuery(c, &params); err != nil {
		h.r.Error(c, err)
		return
	}
	result, err := h.svc.ListForAdmin(c.Request.Context(), actor, &params)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}

// Decide handles PUT /v1/applications/:id/status.
func (h *Handler) Decide(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.StatusRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	app, err := h.svc.Decide(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, app)
}

// Withdraw handles DELETE /v1/applications/:id.
func (h *Handler) Withdraw(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	if err := h.svc.Withdraw(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.NoContent(c)
}
