// Package compute tracks per-business scoring history for the agent.
//
// The score itself is calculated by pkg/score; Engine.Process takes each
// cycle's Outcome and derives the fields that need history: the change in
// total since the last successful report (Delta) and the share of recent
// fetches that succeeded (FetchSuccessPct, over the last 20 attempts). A failed
// cycle keeps the previous report and carries the user-facing error message.
//
// Engine.Process accepts an injectable time.Time so tests are deterministic.
package compute
