package helper

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/core/identity"
	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/logging/observes"
	"github.com/ncobase/collab/net/resp"
)

// Responder writes handler results. Unexpected errors are logged with the
// request context and reported; their text reaches the client only when
// detailed is set.
type Responder struct {
	logger   *logger.Logger
	detailed bool
}

func NewResponder(log *logger.Logger, detailed bool) *Responder {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Responder{logger: log, detailed: detailed}
}

func (r *Responder) OK(c *gin.Context, data any) {
	resp.Success(c.Writer, data)
}

func (r *Responder) Created(c *gin.Context, data any) {
	resp.Created(c.Writer, data)
}

func (r *Responder) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (r *Responder) Error(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch ecode.KindOf(err) {
	case ecode.KindInternal:
		r.logger.Error(ctx, "Request failed", "error", err, "method", c.Request.Method, "path", c.FullPath())
		observes.CaptureError(ctx, err)
	case ecode.KindDependency:
		r.logger.Warn(ctx, "Dependency unavailable", "error", err, "method", c.Request.Method, "path", c.FullPath())
	}
	resp.Error(c.Writer, err, r.detailed)
}

// Actor returns the authenticated caller.
func Actor(c *gin.Context) (*structs.Actor, error) {
	actor, ok := identity.ActorFrom(c.Request.Context())
	if !ok {
		return nil, ecode.NewUnauthorized("not authenticated")
	}
	return actor, nil
}
