package observes

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/ctxutil"
)

// NewSentry initializes the sentry client. A config without an endpoint
// leaves sentry disabled and every capture becomes a no-op.
func NewSentry(c *config.Sentry, name string) (func(), error) {
	if c == nil || c.Endpoint == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.Endpoint,
		AttachStacktrace: true,
		SampleRate:       c.SampleRate,
		ServerName:       name,
		Release:          c.Release,
		Environment:      c.Environment,
	})
	if err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err tagged with the request trace and user.
func CaptureError(ctx context.Context, err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if traceID := ctxutil.GetTraceID(ctx); traceID != "" {
			scope.SetTag("trace_id", traceID)
		}
		if uid := ctxutil.GetUserID(ctx); uid != "" {
			scope.SetUser(sentry.User{ID: uid})
		}
		if tid := ctxutil.GetTenantID(ctx); tid != "" {
			scope.SetTag("tenant_id", tid)
		}
		if roles := ctxutil.GetUserRoles(ctx); len(roles) > 0 {
			scope.SetTag("roles", strings.Join(roles, ","))
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(ctx context.Context, v any) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if traceID := ctxutil.GetTraceID(ctx); traceID != "" {
			scope.SetTag("trace_id", traceID)
		}
		sentry.CurrentHub().Recover(v)
	})
}
