package resp

import (
	"errors"
	"net/http"

	"github.com/ncobase/collab/ecode"
)

// UnAuthorized indicates that the request is unauthorized.
func UnAuthorized(message string, data ...any) *Exception {
	return newException(http.StatusUnauthorized, ecode.Unauthorized, message, data...)
}

// NotFound indicates that the requested resource is not found.
func NotFound(message string, data ...any) *Exception {
	return newException(http.StatusNotFound, ecode.NothingFound, message, data...)
}

// Forbidden indicates access is forbidden.
func Forbidden(message string, data ...any) *Exception {
	return newException(http.StatusForbidden, ecode.AccessDenied, message, data...)
}

// InternalServer indicates a server error.
func InternalServer(message string, data ...any) *Exception {
	return newException(http.StatusInternalServerError, ecode.ServerErr, message, data...)
}

// Conflict indicates a conflict error.
func Conflict(message string, data ...any) *Exception {
	return newException(http.StatusConflict, ecode.Conflict, message, data...)
}

// Unprocessable indicates a validation failure.
func Unprocessable(message string, data ...any) *Exception {
	return newException(http.StatusUnprocessableEntity, ecode.ParamErr, message, data...)
}

// Unavailable indicates an upstream dependency failure.
func Unavailable(message string, data ...any) *Exception {
	return newException(http.StatusServiceUnavailable, ecode.Dependency, message, data...)
}

// NotAllowed indicates a not allowed error.
func NotAllowed(message string, data ...any) *Exception {
	return newException(http.StatusMethodNotAllowed, ecode.MethodNotAllowed, message, data...)
}

// FromError converts a service error into an Exception. Untyped errors and
// dependency failures become opaque unless detailed is set.
func FromError(err error, detailed bool) *Exception {
	var e *ecode.Error
	if !errors.As(err, &e) {
		msg := ecode.Text(ecode.ServerErr)
		if detailed && err != nil {
			msg = err.Error()
		}
		return InternalServer(msg)
	}

	msg := e.Message
	switch e.Kind {
	case ecode.KindUnauthorized:
		return UnAuthorized(orText(msg, ecode.Unauthorized))
	case ecode.KindForbidden:
		return Forbidden(orText(msg, ecode.AccessDenied))
	case ecode.KindNotFound:
		return NotFound(orText(msg, ecode.NothingFound))
	case ecode.KindConflict:
		return Conflict(orText(msg, ecode.Conflict))
	case ecode.KindValidation:
		return Unprocessable(orText(msg, ecode.ParamErr), e.Fields)
	case ecode.KindDependency:
		if detailed {
			return Unavailable(e.Error())
		}
		return Unavailable(ecode.Text(ecode.Dependency))
	default:
		if detailed {
			return InternalServer(e.Error())
		}
		return InternalServer(ecode.Text(ecode.ServerErr))
	}
}

// Error writes err as a failure response.
func Error(w http.ResponseWriter, err error, detailed ...bool) {
	Fail(w, FromError(err, len(detailed) > 0 && detailed[0]))
}

func orText(msg string, code int) string {
	if msg != "" {
		return msg
	}
	return ecode.Text(code)
}
