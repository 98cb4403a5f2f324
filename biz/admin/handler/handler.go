// Package handler exposes admin endpoints.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/admin/service"
	appstructs "github.com/ncobase/collab/biz/application/structs"
	auditstructs "github.com/ncobase/collab/biz/audit/structs"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/helper"
)

type Handler struct {
	svc *service.Service
	r   *helper.Responder
}

func New(svc *service.Service, r *helper.Responder) *Handler {
	return &Handler{svc: svc, r: r}
}

// Moderate handles PUT /v1/admin/projects/:id/moderate.
func (h *Handler) Moderate(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req projectstructs.ModerateRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Moderate(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// BulkModerate handles PUT /v1/admin/projects/bulk-moderate.
func (h *Handler) BulkModerate(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req projectstructs.BulkModerateRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	result, err := h.svc.BulkModerate(c.Request.Context(), actor, &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}

// Reopen handles PUT /v1/admin/projects/:id/reopen.
func (h *Handler) Reopen(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req projectstructs.ReopenRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Reopen(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// Progress handles PUT /v1/admin/projects/:id/progress.
func (h *Handler) Progress(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req projectstructs.AdminProgressRequest
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

// Archive handles DELETE /v1/admin/projects/:id?reason=.
func (h *Handler) Archive(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	p, err := h.svc.Archive(c.Request.Context(), actor, c.Param("id"), c.Query("reason"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, p)
}

// OverrideApplication handles PUT /v1/admin/applications/:id/status.
func (h *Handler) OverrideApplication(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var req appstructs.OverrideRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	app, err := h.svc.OverrideApplication(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, app)
}

// Analytics handles GET /v1/admin/analytics.
func (h *Handler) Analytics(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	out, err := h.svc.Analytics(c.Request.Context(), actor)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, out)
}

// AuditLogs handles GET /v1/admin/audit-logs.
func (h *Handler) AuditLogs(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	var params auditstructs.ListParams
	if err := helper.ShouldBindQuery(c, &params); err != nil {
		h.r.Error(c, err)
		return
	}
	result, err := h.svc.AuditLogs(c.Request.Context(), actor, &params)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, result)
}
