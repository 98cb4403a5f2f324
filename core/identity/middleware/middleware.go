// Package middleware provides bearer authentication for gin routes.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/consts"
	"github.com/ncobase/collab/core/identity"
	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/net/resp"
)

type Middleware struct {
	auth   *identity.Authenticator
	logger *logger.Logger
}

func NewMiddleware(auth *identity.Authenticator, log *logger.Logger) *Middleware {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Middleware{auth: auth, logger: log}
}

// Authenticate requires a bearer credential in the Authorization header.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return m.authenticate(false)
}

// AuthenticateUpgrade also accepts the credential in the token query
// parameter, for clients that cannot set headers on a websocket upgrade.
func (m *Middleware) AuthenticateUpgrade() gin.HandlerFunc {
	return m.authenticate(true)
}

func (m *Middleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader(consts.AuthorizationKey))
		if token == "" && allowQuery {
			token = c.Query(consts.TokenQueryKey)
		}

		ctx := c.Request.Context()
		actor, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			m.logger.Debug(ctx, "Authentication rejected", "path", c.FullPath(), "error", err)
			resp.Error(c.Writer, err)
			c.Abort()
			return
		}

		ctx = identity.WithActor(ctx, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set(consts.ActorKey, actor)
		c.Next()
	}
}

// RequireRole rejects actors holding none of roles.
func (m *Middleware) RequireRole(roles ...structs.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := identity.ActorFrom(c.Request.Context())
		if !ok {
			resp.Fail(c.Writer, resp.UnAuthorized("not authenticated"))
			c.Abort()
			return
		}
		if !actor.HasRole(roles...) {
			m.logger.Warn(c.Request.Context(), "Access denied", "user_roles", actor.Roles, "required_roles", roles)
			resp.Fail(c.Writer, resp.Forbidden("insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin ensures the actor is HEAD_ADMIN or SUPER_ADMIN.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(structs.RoleHeadAdmin, structs.RoleSuperAdmin)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > len(consts.BearerKey) && strings.EqualFold(header[:len(consts.BearerKey)], consts.BearerKey) {
		return strings.TrimSpace(header[len(consts.BearerKey):])
	}
	return ""
}
