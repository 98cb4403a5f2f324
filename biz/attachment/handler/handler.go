// Package handler exposes attachment endpoints.
package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/attachment/service"
	"github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/helper"
)

type Handler struct {
	svc       *service.Service
	r         *helper.Responder
	maxUpload int64
}

func New(svc *service.Service, r *helper.Responder, maxUpload int64) *Handler {
	return &Handler{svc: svc, r: r, maxUpload: maxUpload}
}

// List handles GET /v1/projects/:id/attachments.
func (h *Handler) List(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	out, err := h.svc.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.OK(c, out)
}

// Create handles POST /v1/projects/:id/attachments. A JSON body registers an
// external URL; a multipart body with a "file" part uploads to storage.
func (h *Handler) Create(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.upload(c)
		return
	}

	var req structs.CreateAttachmentRequest
	if err := helper.ShouldBindAndValidateStruct(c, &req); err != nil {
		h.r.Error(c, err)
		return
	}
	att, err := h.svc.Create(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, att)
}

func (h *Handler) upload(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	// Allow for multipart framing on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.r.Error(c, h.tooLarge())
			return
		}
		h.r.Error(c, ecode.NewValidation(map[string]string{"file": ecode.FieldIsRequired("file")}))
		return
	}
	if header.Size > h.maxUpload {
		h.r.Error(c, h.tooLarge())
		return
	}
	f, err := header.Open()
	if err != nil {
		h.r.Error(c, err)
		return
	}
	defer f.Close()

	fileType := header.Header.Get("Content-Type")
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	att, err := h.svc.Upload(c.Request.Context(), actor, c.Param("id"), &service.Upload{
		FileName: header.Filename,
		FileType: fileType,
		Size:     header.Size,
		Body:     f,
	})
	if err != nil {
		h.r.Error(c, err)
		return
	}
	h.r.Created(c, att)
}

func (h *Handler) tooLarge() error {
	return ecode.NewValidation(map[string]string{"file": "The file exceeds the upload size limit."})
}

// Download handles GET /v1/attachments/:id/download.
func (h *Handler) Download(c *gin.Context) {
	actor, err := helper.Actor(c)
	if err != nil {
		h.r.Error(c, err)
		return
	}
	att, rc, err := h.svc.Open(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.r.Error(c, err)
		return
	}
	defer rc.Close()

	contentType := att.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName})
	c.DataFromReader(http.StatusOK, att.Size, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete handles DELETE /v1/attachments/:id.
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
