// Package receiver implements the ingest endpoint that accepts ScoreSnapshot
// batches from localrank-agent instances.
//
// Receiver validates that every snapshot carries a businessId (400 for the
// whole batch otherwise), stores each one, runs the alert rules against it
// and, when a publisher is configured, forwards it to Kafka. Publish failures
// are counted and logged but never fail the request: the store is the source
// of truth for the server. Authentication is enforced upstream by the HTTP
// middleware in package auth.
package receiver
