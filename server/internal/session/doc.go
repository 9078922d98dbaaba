// Package session tracks interactive scoring sessions for POST /api/v1/score.
//
// A session holds the inputs of the latest request, whether a calculation is
// in flight, the user-facing error of the latest failure and the last
// successful report. At most one calculation runs per session: a new request
// cancels the in-flight one, and the superseded caller receives ErrSuperseded
// instead of a result. A failed calculation never clears the last report.
//
// Idle sessions are evicted by Run after the configured TTL.
package session
