package ecode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	requiredMsg = "required"
	invalidMsg  = "invalid"
	existMsg    = "already exists"
	notExistMsg = "does not exist"
)

// FieldIsRequired returns field required message
func FieldIsRequired(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], requiredMsg)
	}
	return requiredMsg
}

// FieldIsInvalid returns field invalid message
func FieldIsInvalid(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], invalidMsg)
	}
	return invalidMsg
}

// AlreadyExist returns already exist message
func AlreadyExist(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], existMsg)
	}
	return existMsg
}

// NotExist returns not exist message
func NotExist(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], notExistMsg)
	}
	return notExistMsg
}

// Kind classifies why a request was rejected.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindDependency   Kind = "dependency"
	KindInternal     Kind = "internal"
)

var kindCodes = map[Kind]int{
	KindUnauthorized: Unauthorized,
	KindForbidden:    AccessDenied,
	KindNotFound:     NothingFound,
	KindConflict:     Conflict,
	KindValidation:   ParamErr,
	KindDependency:   Dependency,
	KindInternal:     ServerErr,
}

// Error is a typed service error.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists offending request fields for KindValidation.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		b.WriteString(strings.Join(keys, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the business code for the error kind.
func (e *Error) Code() int {
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return ServerErr
}

// Is matches errors of the same kind so callers can write
// errors.Is(err, ecode.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Fields == nil && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrDependency   = &Error{Kind: KindDependency}
)

func NewUnauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func NewForbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NewNotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func NewConflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// NewValidation builds a validation error listing the offending fields.
func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// NewDependency wraps an upstream failure.
func NewDependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
