package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/consts"
	"github.com/ncobase/collab/ctxutil"
	"github.com/ncobase/collab/logging/observes"
	"github.com/ncobase/collab/net/resp"
)

// traceMiddleware reuses the caller's trace id or assigns one, and echoes
// it in the response header.
func (s *Server) traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithGinContext(c.Request.Context(), c)
		if id := c.GetHeader(consts.TraceKey); id != "" {
			ctx = ctxutil.SetTraceID(ctx, id)
		}
		ctx, traceID := ctxutil.EnsureTraceID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(consts.TraceKey, traceID)
		c.Next()
	}
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", method,
			"path", path,
			"status", status,
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		switch {
		case status >= 500:
			s.logger.Error(c.Request.Context(), "HTTP request", kv...)
		case status >= 400:
			s.logger.Warn(c.Request.Context(), "HTTP request", kv...)
		default:
			s.logger.Info(c.Request.Context(), "HTTP request", kv...)
		}
	}
}

// recoveryMiddleware turns a handler panic into a 500 and reports it.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				ctx := c.Request.Context()
				s.logger.Error(ctx, "Handler panicked", "panic", fmt.Sprint(v), "path", c.Request.URL.Path)
				observes.CapturePanic(ctx, v)
				if !c.Writer.Written() {
					resp.Fail(c.Writer, resp.InternalServer("internal server error"))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
