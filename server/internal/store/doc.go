// Package store holds the latest ScoreSnapshot per business in memory. It is
// thread-safe and evicts businesses whose agent has not reported within the
// snapshot TTL.
package store
