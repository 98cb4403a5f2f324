package identity

import (
	"context"

	"github.com/ncobase/collab/consts"
	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ctxutil"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/security/jwt"
)

// Authenticator verifies a bearer token and resolves the caller. HTTP
// middleware and the realtime handshake share it.
type Authenticator struct {
	tokens   *jwt.TokenManager
	resolver *Resolver
	logger   *logger.Logger
}

func NewAuthenticator(tokens *jwt.TokenManager, resolver *Resolver, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Authenticator{tokens: tokens, resolver: resolver, logger: log}
}

// Authenticate returns the actor for raw, or an Unauthorized error.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*structs.Actor, error) {
	if raw == "" {
		return nil, ecode.NewUnauthorized("missing credential")
	}
	claims, err := a.tokens.DecodeToken(raw)
	if err != nil {
		a.logger.Debug(ctx, "Token validation failed", "error", err)
		return nil, ecode.NewUnauthorized("invalid or expired token")
	}

	subject := jwt.GetUserIDFromToken(claims)
	roles := structs.ParseRoles(jwt.GetRolesFromToken(claims))
	scope, err := a.resolver.Resolve(ctx, &Request{Subject: subject, Credential: raw, Claims: claims, Roles: roles})
	if err != nil {
		return nil, err
	}

	return &structs.Actor{
		ID:    subject,
		Roles: roles,
		Scope: *scope,
	}, nil
}

// WithActor stores the actor and mirrors its ids into the ctxutil keys used
// by logging.
func WithActor(ctx context.Context, actor *structs.Actor) context.Context {
	ctx = ctxutil.SetValue(ctx, consts.ActorKey, actor)
	ctx = ctxutil.SetUserID(ctx, actor.ID)
	ctx = ctxutil.SetTenantID(ctx, actor.Scope.TenantID)
	return ctxutil.SetUserRoles(ctx, structs.RoleStrings(actor.Roles))
}

// ActorFrom returns the authenticated actor.
func ActorFrom(ctx context.Context) (*structs.Actor, bool) {
	actor, ok := ctxutil.GetValue(ctx, consts.ActorKey).(*structs.Actor)
	return actor, ok && actor != nil
}
