package identity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/data/cache"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/security/jwt"
)

// CacheStrategy looks the scope up by subject.
type CacheStrategy struct {
	cache cache.ICache[structs.Scope]
}

func NewCacheStrategy(c cache.ICache[structs.Scope]) *CacheStrategy {
	return &CacheStrategy{cache: c}
}

func (s *CacheStrategy) Name() string { return "cache" }

func (s *CacheStrategy) Resolve(ctx context.Context, req *Request) (*structs.Scope, error) {
	if s.cache == nil {
		return nil, nil
	}
	scope, err := s.cache.Get(ctx, req.Subject)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if !scope.CompleteFor(req.Roles) {
		return nil, nil
	}
	return scope, nil
}

// TokenStrategy reads scope fields embedded in the token payload.
type TokenStrategy struct{}

func NewTokenStrategy() *TokenStrategy { return &TokenStrategy{} }

func (s *TokenStrategy) Name() string { return "token" }

func (s *TokenStrategy) Resolve(_ context.Context, req *Request) (*structs.Scope, error) {
	if req.Claims == nil {
		return nil, nil
	}
	return &structs.Scope{
		TenantID:    jwt.GetTenantIDFromToken(req.Claims),
		Department:  jwt.GetDepartmentFromToken(req.Claims),
		DisplayName: jwt.GetDisplayNameFromToken(req.Claims),
		Avatar:      jwt.GetAvatarFromToken(req.Claims),
		Year:        jwt.GetYearFromToken(req.Claims),
	}, nil
}

// ServiceStrategy asks the identity service for the subject's record.
type ServiceStrategy struct {
	client *Upstream
}

func NewServiceStrategy(client *Upstream) *ServiceStrategy {
	return &ServiceStrategy{client: client}
}

func (s *ServiceStrategy) Name() string { return "identity_service" }

func (s *ServiceStrategy) Resolve(ctx context.Context, req *Request) (*structs.Scope, error) {
	if s.client == nil || !s.client.Enabled() {
		return nil, nil
	}
	if req.Credential == "" {
		return nil, ecode.NewUnauthorized("credential required for identity lookup")
	}
	return s.client.Fetch(ctx, "/users/"+url.PathEscape(req.Subject), req.Credential)
}

// ProfileStrategy asks the profile service for the caller's own profile.
type ProfileStrategy struct {
	client *Upstream
}

func NewProfileStrategy(client *Upstream) *ProfileStrategy {
	return &ProfileStrategy{client: client}
}

func (s *ProfileStrategy) Name() string { return "profile" }

func (s *ProfileStrategy) Resolve(ctx context.Context, req *Request) (*structs.Scope, error) {
	if s.client == nil || !s.client.Enabled() {
		return nil, nil
	}
	if req.Credential == "" {
		return nil, ecode.NewUnauthorized("credential required for profile lookup")
	}
	return s.client.Fetch(ctx, "/profile/me", req.Credential)
}
