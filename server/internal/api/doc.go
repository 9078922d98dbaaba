// Package api implements the HTTP REST API for localrank-server.
//
// New returns an http.Handler (gorilla/mux) that serves:
//
//	GET  /api/v1/health                   average score, rating counts, alert count
//	GET  /api/v1/businesses               all live businesses
//	GET  /api/v1/businesses/{id}          single business; 404 if unknown or stale
//	GET  /api/v1/businesses/{id}/insights presentation chips for one business
//	POST /api/v1/score                    on-demand calculation in a session
//	GET  /api/v1/sessions/{id}            session state
//	GET  /api/v1/alerts                   firing and recently resolved alerts
//	GET  /api/v1/snapshot                 businesses plus alerts in one document
//
// POST /api/v1/score reads the session id from X-Session-ID, generating one
// when absent, and echoes it on the response. It answers 400 for blank
// inputs, 409 when a newer request in the same session superseded it, 502
// with the user-facing message when the data fetch failed, and 429 when the
// per-IP limiter rejects the request.
//
// Every response, errors included, is JSON.
package api
