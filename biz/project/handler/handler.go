// Package handler exposes project endpoints.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/project/service"
	"github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/paging"
)

type listFunc func(context.Context, *idstructs.Actor, *structs.ListParams) (*paging.Result[*structs.Project], error)

type Handler struct {
	svc *service.Service
	r   *helper.Responder
}

func New(svc *service.Service, r *helper.Responder) *Handler {
	return &Handler{svc: svc, r: r}
}

// Create handles POST /v1/projects.
func (h *Handler) Create(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.CreateProjectRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, p)
}

// List handles GET /v1/projects.
func (h *Handler) List(c *gin.Context) {
	h.list(c, h.svc.List)
}

// Mine handles GET /v1/projects/mine.
func (h *Handler) Mine(c *gin.Context) {
	h.list(c, h.svc.Mine)
}

// AdminList handles GET /v1/admin/projects.
func (h *Handler) AdminList(c *gin.Context) {
	h.list(c, h.svc.ListForAdmin)
}

func (h *Handler) list(c *gin.Context, fn listFunc) {
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
	result, err := fn(c.Request.Context(), actor, &params)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}

// Get handles GET /v1/projects/:id.
func (h *Handler) Get(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// Update handles PUT /v1/projects/:id.
func (h *Handler) Update(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.UpdateProjectRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// Delete handles DELETE /v1/projects/:id as a soft archive.
func (h *Handler) Delete(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Archive(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// Progress handles PUT /v1/projects/:id/progress.
func (h *Handler) Progress(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req structs.ProgressRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.SetProgress(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}
