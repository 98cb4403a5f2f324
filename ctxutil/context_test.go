package ctxutil

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestValuesRoundTrip(t *testing.T) {
	ctx := SetUserID(context.Background(), "u1")
	ctx = SetTenantID(ctx, "T1")
	ctx = SetUserRoles(ctx, []string{"FACULTY"})

	if GetUserID(ctx) != "u1" || GetTenantID(ctx) != "T1" {
		t.Fatalf("user=%q tenant=%q", GetUserID(ctx), GetTenantID(ctx))
	}
	if roles := GetUserRoles(ctx); len(roles) != 1 || roles[0] != "FACULTY" {
		t.Fatalf("roles = %v", roles)
	}
	if GetTraceID(context.Background()) != "" {
		t.Fatal("empty context has a trace id")
	}
}

func TestEnsureTraceIDKeepsExisting(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	if id == "" || GetTraceID(ctx) != id {
		t.Fatalf("generated id %q not stored", id)
	}
	if _, again := EnsureTraceID(ctx); again != id {
		t.Fatalf("trace id changed from %q to %q", id, again)
	}
}

func TestValuesMirrorIntoGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx := WithGinContext(context.Background(), c)
	SetTraceID(ctx, "trace-1")

	if v, ok := c.Get(traceIDKey); !ok || v != "trace-1" {
		t.Fatalf("gin value = %v, %v", v, ok)
	}
	// A plain context derived before the set still sees it through gin.
	if GetTraceID(ctx) != "trace-1" {
		t.Fatal("trace id not visible through the gin context")
	}
}
