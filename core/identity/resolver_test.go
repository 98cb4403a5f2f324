package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/data/cache"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/security/jwt"
)

type staticStrategy struct {
	name  string
	scope *structs.Scope
	err   error
	calls int
}

func (s *staticStrategy) Name() string { return s.name }

func (s *staticStrategy) Resolve(context.Context, *Request) (*structs.Scope, error) {
	s.calls++
	return s.scope, s.err
}

func TestResolverMergesPartialScopes(t *testing.T) {
	c := cache.NewMemory[structs.Scope]()
	token := &staticStrategy{name: "token", scope: &structs.Scope{TenantID: "T1", DisplayName: "Ada"}}
	profile := &staticStrategy{name: "profile", scope: &structs.Scope{TenantID: "T9", Department: "CS"}}
	r := NewResolver(c, time.Minute, logger.NewNop(), NewCacheStrategy(c), token, profile)

	scope, err := r.Resolve(context.Background(), &Request{Subject: "u1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if scope.TenantID != "T1" || scope.Department != "CS" || scope.DisplayName != "Ada" {
		t.Fatalf("scope = %+v", scope)
	}

	cached, err := c.Get(context.Background(), "u1")
	if err != nil || cached == nil || cached.Department != "CS" {
		t.Fatalf("cached = %+v, %v", cached, err)
	}

	// The second call is served from cache.
	if _, err := r.Resolve(context.Background(), &Request{Subject: "u1"}); err != nil {
		t.Fatal(err)
	}
	if token.calls != 1 || profile.calls != 1 {
		t.Fatalf("strategies called token=%d profile=%d, want 1/1", token.calls, profile.calls)
	}
}

func TestResolverCachesStaffWithoutDepartment(t *testing.T) {
	c := cache.NewMemory[structs.Scope]()
	profile := &staticStrategy{name: "profile", scope: &structs.Scope{TenantID: "T1", DisplayName: "Head"}}
	r := NewResolver(c, time.Minute, logger.NewNop(), NewCacheStrategy(c), profile)
	admin := &Request{Subject: "h1", Roles: []structs.Role{structs.RoleHeadAdmin}}

	for i := 0; i < 3; i++ {
		scope, err := r.Resolve(context.Background(), admin)
		if err != nil || scope.TenantID != "T1" {
			t.Fatalf("Resolve = %+v, %v", scope, err)
		}
	}
	if profile.calls != 1 {
		t.Fatalf("profile called %d times, want 1", profile.calls)
	}

	// A student still needs a department before the scope is cached.
	student := &Request{Subject: "s1", Roles: []structs.Role{structs.RoleStudent}}
	profile.calls = 0
	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), student); err != nil {
			t.Fatal(err)
		}
	}
	if profile.calls != 2 {
		t.Fatalf("profile called %d times for a student, want 2", profile.calls)
	}
}

func TestResolverSkipsFailingTier(t *testing.T) {
	broken := &staticStrategy{name: "identity_service", err: errors.New("connection refused")}
	profile := &staticStrategy{name: "profile", scope: &structs.Scope{TenantID: "T1", Department: "EE"}}
	r := NewResolver(nil, time.Minute, logger.NewNop(), broken, profile)

	scope, err := r.Resolve(context.Background(), &Request{Subject: "u1"})
	if err != nil || scope.Department != "EE" {
		t.Fatalf("scope = %+v, %v", scope, err)
	}
}

func TestResolverStopsOnUnauthorized(t *testing.T) {
	denied := &staticStrategy{name: "identity_service", err: ecode.NewUnauthorized("credential required")}
	next := &staticStrategy{name: "profile", scope: &structs.Scope{TenantID: "T1", Department: "EE"}}
	r := NewResolver(nil, time.Minute, logger.NewNop(), denied, next)

	if _, err := r.Resolve(context.Background(), &Request{Subject: "u1"}); !errors.Is(err, ecode.ErrUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
	if next.calls != 0 {
		t.Fatal("chain continued after Unauthorized")
	}
}

func TestResolverReturnsIncompleteScope(t *testing.T) {
	r := NewResolver(nil, time.Minute, logger.NewNop(),
		&staticStrategy{name: "token", scope: &structs.Scope{TenantID: "T1"}})
	scope, err := r.Resolve(context.Background(), &Request{Subject: "u1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if scope.CompleteFor(nil) || scope.TenantID != "T1" {
		t.Fatalf("scope = %+v", scope)
	}
	if _, err := r.Resolve(context.Background(), &Request{}); !errors.Is(err, ecode.ErrUnauthorized) {
		t.Fatalf("empty subject err = %v", err)
	}
}

func TestProfileStrategyForwardsCredential(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile/me" {
			http.NotFound(w, r)
			return
		}
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"collegeId":"T1","department":"CS","name":"Ada Lovelace","year":2}}`))
	}))
	defer srv.Close()

	s := NewProfileStrategy(NewUpstream("profile", srv.URL, time.Second, nil))
	scope, err := s.Resolve(context.Background(), &Request{Subject: "u1", Credential: "tok"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if scope.TenantID != "T1" || scope.Department != "CS" || scope.DisplayName != "Ada Lovelace" || scope.Year != 2 {
		t.Fatalf("scope = %+v", scope)
	}
	if got := auth.Load(); got != "Bearer tok" {
		t.Fatalf("Authorization = %v", got)
	}
}

func TestUpstreamDisabledAndFailures(t *testing.T) {
	s := NewServiceStrategy(NewUpstream("identity", "", time.Second, nil))
	if scope, err := s.Resolve(context.Background(), &Request{Subject: "u1"}); scope != nil || err != nil {
		t.Fatalf("disabled upstream = %+v, %v", scope, err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	s = NewServiceStrategy(NewUpstream("identity", srv.URL, time.Second, nil))
	if _, err := s.Resolve(context.Background(), &Request{Subject: "u1", Credential: "tok"}); err == nil {
		t.Fatal("expected error for 502")
	}
	if _, err := s.Resolve(context.Background(), &Request{Subject: "u1"}); !errors.Is(err, ecode.ErrUnauthorized) {
		t.Fatalf("missing credential err = %v", err)
	}
}

func TestAuthenticatorBuildsActor(t *testing.T) {
	tm := jwt.NewTokenManager("secret")
	raw, err := tm.GenerateAccessToken("j1", "u1", map[string]any{
		jwt.KeyRoles:       []string{"STUDENT", "JANITOR"},
		jwt.KeyTenantID:    "T1",
		jwt.KeyDepartment:  "CS",
		jwt.KeyDisplayName: "Ada",
	})
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthenticator(tm, NewResolver(nil, time.Minute, logger.NewNop(), NewTokenStrategy()), logger.NewNop())

	actor, err := a.Authenticate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if actor.ID != "u1" || !actor.IsStudent() || len(actor.Roles) != 1 {
		t.Fatalf("actor = %+v", actor)
	}
	if actor.Scope.TenantID != "T1" || actor.Scope.Department != "CS" {
		t.Fatalf("scope = %+v", actor.Scope)
	}

	if _, err := a.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ecode.ErrUnauthorized) {
		t.Fatalf("bad token err = %v", err)
	}
	if _, err := a.Authenticate(context.Background(), ""); !errors.Is(err, ecode.ErrUnauthorized) {
		t.Fatalf("empty token err = %v", err)
	}

	ctx := WithActor(context.Background(), actor)
	if got, ok := ActorFrom(ctx); !ok || got.ID != "u1" {
		t.Fatalf("ActorFrom = %+v, %v", got, ok)
	}
}
