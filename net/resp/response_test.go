package resp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ncobase/collab/ecode"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestSuccessWritesPayloadDirectly(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"id": "p1"})
	if w.Code != http.StatusOK || decode(t, w)["id"] != "p1" {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	Success(w)
	if decode(t, w)["message"] != "ok" {
		t.Fatalf("empty success body = %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	Created(w, "queued")
	if w.Code != http.StatusCreated || decode(t, w)["message"] != "queued" {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ecode.NewUnauthorized("no token"), http.StatusUnauthorized},
		{ecode.NewForbidden("nope"), http.StatusForbidden},
		{ecode.NewNotFound("project not found"), http.StatusNotFound},
		{ecode.NewConflict("full"), http.StatusConflict},
		{ecode.NewValidation(map[string]string{"title": "required"}), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", ecode.NewConflict("dup")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		Error(w, tc.err)
		if w.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, w.Code, tc.status)
		}
	}
}

func TestValidationCarriesFields(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, ecode.NewValidation(map[string]string{"title": "required"}))
	body := decode(t, w)
	fields, ok := body["errors"].(map[string]any)
	if !ok || fields["title"] != "required" {
		t.Fatalf("body = %v", body)
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, errors.New("pq: password authentication failed"))
	if msg := decode(t, w)["message"]; msg != ecode.Text(ecode.ServerErr) {
		t.Fatalf("message = %v, want opaque text", msg)
	}

	w = httptest.NewRecorder()
	Error(w, errors.New("pq: password authentication failed"), true)
	if msg := decode(t, w)["message"]; msg != "pq: password authentication failed" {
		t.Fatalf("detailed message = %v", msg)
	}
}

func TestFailNil(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
