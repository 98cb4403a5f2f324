// Package identity resolves the caller's authorization scope from a verified
// token through an ordered list of strategies.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/data/cache"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
)

// Request is the input of a resolution.
type Request struct {
	Subject string
	// Credential is the caller's raw bearer token, forwarded to upstreams.
	Credential string
	Claims     map[string]any
	// Roles decide which scope fields must be known.
	Roles []structs.Role
}

// Strategy is one tier of the chain. It returns a scope (complete or
// partial), nil for "nothing here", or an error. Unauthorized errors stop
// the chain; any other error is logged and the next tier is tried.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req *Request) (*structs.Scope, error)
}

// Resolver runs strategies in order until one yields a complete scope.
type Resolver struct {
	strategies []Strategy
	cache      cache.ICache[structs.Scope]
	ttl        time.Duration
	logger     *logger.Logger
}

// NewResolver creates a resolver. Complete scopes produced by any strategy
// other than the cache are written through to c with ttl.
func NewResolver(c cache.ICache[structs.Scope], ttl time.Duration, log *logger.Logger, strategies ...Strategy) *Resolver {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Resolver{strategies: strategies, cache: c, ttl: ttl, logger: log}
}

// Resolve derives the scope for req. A missing profile never fails the call;
// the result then carries only what was learned along the way.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*structs.Scope, error) {
	if req == nil || req.Subject == "" {
		return nil, ecode.NewUnauthorized("missing subject")
	}

	partial := &structs.Scope{}
	for _, s := range r.strategies {
		scope, err := s.Resolve(ctx, req)
		if err != nil {
			if errors.Is(err, ecode.ErrUnauthorized) {
				return nil, err
			}
			r.logger.Warn(ctx, "Scope strategy failed",
				"strategy", s.Name(), "subject", req.Subject, "error", err)
			continue
		}
		if scope == nil {
			continue
		}
		merge(partial, scope)
		if partial.CompleteFor(req.Roles) {
			if _, fromCache := s.(*CacheStrategy); !fromCache {
				r.store(ctx, req.Subject, partial)
			}
			return partial, nil
		}
	}

	r.logger.Info(ctx, "Scope resolved incomplete", "subject", req.Subject,
		"tenant_id", partial.TenantID, "department", partial.Department)
	return partial, nil
}

func (r *Resolver) store(ctx context.Context, subject string, scope *structs.Scope) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, subject, scope, r.ttl); err != nil {
		r.logger.Warn(ctx, "Failed to cache scope", "subject", subject, "error", err)
	}
}

// merge fills empty fields of dst from src.
func merge(dst, src *structs.Scope) {
	if dst.TenantID == "" {
		dst.TenantID = src.TenantID
	}
	if dst.Department == "" {
		dst.Department = src.Department
	}
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.Avatar == "" {
		dst.Avatar = src.Avatar
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
}
