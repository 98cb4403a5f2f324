// Package ecode defines the business error codes returned in API responses and
// the typed error used by services to describe why a request was rejected.
//
// Services return *ecode.Error values built with the kind constructors
// (NotFound, Forbidden, Conflict, ...). The resp package turns them into HTTP
// responses, so handlers never pick status codes by hand:
//
//	if err := access.CanApply(actor, project, state); err != nil {
//	    return nil, err // *ecode.Error with KindConflict or KindForbidden
//	}
//
// Codes follow the numbering below:
//   - 0: success
//   - -100 to -199: authentication / authorization
//   - -400 to -499: request and resource errors
//   - -500+: server and dependency errors
package ecode
