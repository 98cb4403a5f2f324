// Package resp writes the JSON envelopes returned by the HTTP API.
//
// Successful responses carry the payload directly:
//
//	resp.Success(w, project)
//	resp.Created(w, application)
//
// Failures share one shape:
//
//	{
//	  "code": -404,
//	  "message": "project not found",
//	  "errors": {...}
//	}
//
// Handlers normally call resp.Error with the error returned by a service;
// *ecode.Error kinds map to 401, 403, 404, 409, 422 and 503, and anything
// else becomes an opaque 500.
package resp
