package ecode

import "net/http"

const (
	OK = 0

	Unauthorized = -101
	AccessDenied = -103

	RequestErr       = -400
	ParamErr         = -401
	NothingFound     = -404
	MethodNotAllowed = -405
	Conflict         = -409

	ServerErr  = -500
	Dependency = -503
)

var messages = map[int]string{
	OK:               "ok",
	Unauthorized:     "Unauthorized",
	AccessDenied:     "Access denied",
	RequestErr:       "Invalid request",
	ParamErr:         "Invalid parameters",
	NothingFound:     "Resource not found",
	MethodNotAllowed: "Method not allowed",
	Conflict:         "Resource conflict",
	ServerErr:        "Internal server error",
	Dependency:       "Upstream service unavailable",
}

// Text returns the default message for a code.
func Text(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[ServerErr]
}

// ToHTTPStatus maps a business code to its HTTP status.
func ToHTTPStatus(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case Unauthorized:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case RequestErr:
		return http.StatusBadRequest
	case ParamErr:
		return http.StatusUnprocessableEntity
	case NothingFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case Conflict:
		return http.StatusConflict
	case Dependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
