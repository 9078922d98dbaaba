// Package shipper sends ScoreSnapshot batches to localrank-server as JSON over
// HTTP (POST /ingest/v1/snapshots).
//
// Shipper.Ship() is non-blocking: results are converted to snapshots and
// placed in an in-memory channel (default capacity 1000). When the buffer is
// full the oldest entry is evicted so the latest scores are always preserved.
//
// Shipper.Run() drains the buffer once per ship interval and POSTs the batch,
// retrying with truncated exponential backoff (1s→60s, ±25% jitter) on
// connection errors, 429 and 5xx. Other 4xx responses discard the batch
// immediately rather than retrying.
//
// Auth: API key header (server_auth.mode apikey), or none for local development.
package shipper
