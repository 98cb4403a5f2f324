package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/security/jwt"
	"github.com/spf13/viper"
)

const testSecret = "test-secret"

type harness struct {
	t   *testing.T
	srv *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	v := viper.New()
	v.Set("auth.jwt.secret", testSecret)
	cfg := config.FromViper(v)

	srv, err := New(cfg, logger.NewNop(), &Deps{Repositories: NewMemoryRepositories()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv.Start(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Cleanup(context.Background())
	})
	return &harness{t: t, srv: srv}
}

func token(t *testing.T, id, role, tenant, dept string) string {
	t.Helper()
	raw, err := jwt.NewTokenManager(testSecret).GenerateAccessToken("", id, map[string]any{
		jwt.KeyRoles:       []string{role},
		jwt.KeyTenantID:    tenant,
		jwt.KeyDepartment:  dept,
		jwt.KeyDisplayName: "User " + id,
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func (h *harness) do(method, path, tok string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func TestHealthAndAuthentication(t *testing.T) {
	h := newHarness(t)
	if code, _ := h.do(http.MethodGet, "/health", "", nil); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if code, body := h.do(http.MethodGet, "/nope", "", nil); code != http.StatusNotFound || body["message"] == nil {
		t.Fatalf("unknown route = %d %v", code, body)
	}
	if code, _ := h.do(http.MethodPost, "/health", "", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method = %d, want 405", code)
	}
	if code, _ := h.do(http.MethodGet, "/v1/projects", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d, want 401", code)
	}
	if code, _ := h.do(http.MethodGet, "/v1/projects", "garbage", nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token list = %d, want 401", code)
	}
	student := token(t, "s1", "STUDENT", "T1", "CS")
	if code, _ := h.do(http.MethodGet, "/v1/admin/projects", student, nil); code != http.StatusForbidden {
		t.Fatalf("student on admin route = %d, want 403", code)
	}
}

func TestProjectCollaborationFlow(t *testing.T) {
	h := newHarness(t)
	faculty := token(t, "f1", "FACULTY", "T1", "CS")
	student := token(t, "s1", "STUDENT", "T1", "CS")
	admin := token(t, "h1", "HEAD_ADMIN", "T1", "Office")

	code, p := h.do(http.MethodPost, "/v1/projects", faculty, map[string]any{
		"title":        "Compiler construction",
		"description":  "Write a compiler",
		"project_type": "PROJECT",
		"max_students": 1,
	})
	if code != http.StatusCreated {
		t.Fatalf("create project = %d %v", code, p)
	}
	projectID, _ := p["id"].(string)
	if p["moderation_status"] != "PENDING_APPROVAL" {
		t.Fatalf("project = %v", p)
	}

	// Pending projects are invisible to students.
	if code, _ := h.do(http.MethodGet, "/v1/projects/"+projectID, student, nil); code != http.StatusNotFound {
		t.Fatalf("student get pending = %d, want 404", code)
	}

	if code, body := h.do(http.MethodPut, "/v1/admin/projects/"+projectID+"/moderate", admin,
		map[string]any{"status": "APPROVED"}); code != http.StatusOK {
		t.Fatalf("moderate = %d %v", code, body)
	}

	code, app := h.do(http.MethodPost, "/v1/projects/"+projectID+"/applications", student, map[string]any{"message": "pick me"})
	if code != http.StatusCreated {
		t.Fatalf("apply = %d %v", code, app)
	}
	appID, _ := app["id"].(string)

	// Not a member yet.
	if code, _ := h.do(http.MethodPost, "/v1/projects/"+projectID+"/comments", student, map[string]any{"body": "hello"}); code != http.StatusForbidden {
		t.Fatalf("comment before acceptance = %d, want 403", code)
	}

	if code, body := h.do(http.MethodPut, "/v1/applications/"+appID+"/status", faculty,
		map[string]any{"status": "ACCEPTED"}); code != http.StatusOK {
		t.Fatalf("accept = %d %v", code, body)
	}

	code, tk := h.do(http.MethodPost, "/v1/projects/"+projectID+"/tasks", faculty,
		map[string]any{"title": "Lexer", "assigned_to_id": "s1"})
	if code != http.StatusCreated {
		t.Fatalf("create task = %d %v", code, tk)
	}
	if code, body := h.do(http.MethodPut, "/v1/tasks/"+tk["id"].(string), student,
		map[string]any{"status": "IN_PROGRESS"}); code != http.StatusOK {
		t.Fatalf("assignee status change = %d %v", code, body)
	}
	if code, body := h.do(http.MethodPost, "/v1/projects/"+projectID+"/comments", student,
		map[string]any{"body": "Started", "task_id": tk["id"]}); code != http.StatusCreated {
		t.Fatalf("comment = %d %v", code, body)
	}

	code, logs := h.do(http.MethodGet, "/v1/admin/audit-logs", admin, nil)
	if code != http.StatusOK {
		t.Fatalf("audit logs = %d", code)
	}
	if items, _ := logs["items"].([]any); len(items) != 1 {
		t.Fatalf("audit items = %v", logs["items"])
	}

	other := token(t, "h2", "HEAD_ADMIN", "T2", "Office")
	if code, _ := h.do(http.MethodPut, "/v1/admin/projects/"+projectID+"/moderate", other,
		map[string]any{"status": "REJECTED"}); code != http.StatusForbidden && code != http.StatusNotFound {
		t.Fatalf("cross-tenant moderate = %d", code)
	}
}
