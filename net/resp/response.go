package resp

import (
	"encoding/json"
	"net/http"

	"github.com/ncobase/collab/ecode"
)

// Exception is the body of every failure response. Status only selects the
// HTTP status line.
type Exception struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

func newException(status, code int, message string, errs ...any) *Exception {
	e := &Exception{Status: status, Code: code, Message: message}
	if len(errs) > 0 {
		e.Errors = errs[0]
	}
	return e
}

// Success writes a 200 response.
func Success(w http.ResponseWriter, data ...any) {
	WithStatusCode(w, http.StatusOK, data...)
}

// Created writes a 201 response with the new resource.
func Created(w http.ResponseWriter, data any) {
	WithStatusCode(w, http.StatusCreated, data)
}

// WithStatusCode writes data as the body. A missing payload becomes
// {"message":"ok"} and a string payload becomes {"message":data}.
func WithStatusCode(w http.ResponseWriter, status int, data ...any) {
	var body any = map[string]any{"message": "ok"}
	if len(data) > 0 && data[0] != nil {
		if msg, ok := data[0].(string); ok {
			body = map[string]any{"message": msg}
		} else {
			body = data[0]
		}
	}
	writeJSON(w, status, body)
}

// Fail writes e. A nil exception is an opaque 500.
func Fail(w http.ResponseWriter, e *Exception) {
	if e == nil {
		e = InternalServer(ecode.Text(ecode.ServerErr))
	}
	status := e.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	if e.Code == 0 {
		e.Code = ecode.RequestErr
	}
	if e.Message == "" {
		e.Message = ecode.Text(e.Code)
	}
	writeJSON(w, status, e)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
