// Package ctxutil stores request metadata on context.Context. Values set
// while a *gin.Context is attached are mirrored into it so gin handlers and
// plain contexts see the same data.
package ctxutil

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ncobase/collab/consts"
)

const (
	userIDKey    = consts.UserKey
	tenantIDKey  = consts.TenantKey
	traceIDKey   = consts.TraceKey
	userRolesKey = "user_roles"
)

// WithGinContext attaches c so later values are mirrored into it.
func WithGinContext(ctx context.Context, c *gin.Context) context.Context {
	return context.WithValue(ctx, consts.GinContextKey, c)
}

// GetGinContext returns the *gin.Context attached to ctx, if any.
func GetGinContext(ctx context.Context) (*gin.Context, bool) {
	c, ok := ctx.Value(consts.GinContextKey).(*gin.Context)
	return c, ok
}

func GetValue(ctx context.Context, key string) any {
	if c, ok := GetGinContext(ctx); ok {
		if v, exists := c.Get(key); exists {
			return v
		}
	}
	return ctx.Value(key)
}

func SetValue(ctx context.Context, key string, val any) context.Context {
	if c, ok := GetGinContext(ctx); ok {
		c.Set(key, val)
	}
	return context.WithValue(ctx, key, val)
}

func getString(ctx context.Context, key string) string {
	s, _ := GetValue(ctx, key).(string)
	return s
}

func SetUserID(ctx context.Context, uid string) context.Context {
	return SetValue(ctx, userIDKey, uid)
}

func GetUserID(ctx context.Context) string { return getString(ctx, userIDKey) }

func SetTenantID(ctx context.Context, tid string) context.Context {
	return SetValue(ctx, tenantIDKey, tid)
}

func GetTenantID(ctx context.Context) string { return getString(ctx, tenantIDKey) }

func SetUserRoles(ctx context.Context, roles []string) context.Context {
	return SetValue(ctx, userRolesKey, roles)
}

func GetUserRoles(ctx context.Context) []string {
	roles, _ := GetValue(ctx, userRolesKey).([]string)
	return roles
}

func SetTraceID(ctx context.Context, traceID string) context.Context {
	return SetValue(ctx, traceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string { return getString(ctx, traceIDKey) }

// EnsureTraceID assigns a random trace id when ctx has none.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		return ctx, traceID
	}
	traceID := uuid.NewString()
	return SetTraceID(ctx, traceID), traceID
}
