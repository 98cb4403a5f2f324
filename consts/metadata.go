// Package consts holds header names and context keys shared across packages.
package consts

// Request headers.
const (
	AuthorizationKey = "Authorization"
	BearerKey        = "Bearer "
	// TraceKey carries the request trace id in both directions.
	TraceKey = "X-Collab-Trace"
)

// Context keys set by the trace and identity middleware.
const (
	GinContextKey = "gin-context"
	UserKey       = "collab-uid"
	TenantKey     = "collab-tid"
	ActorKey      = "collab-actor"
)

// TokenQueryKey is the query parameter accepted for websocket upgrades,
// where browsers cannot set headers.
const TokenQueryKey = "token"
