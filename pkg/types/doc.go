// Package types defines the shared data model used by the agent, the server
// and the scoring engine: raw signals from a data source, the composite score
// with its seven sub-scores, recommendations, and the ScoreSnapshot record the
// agent ships to the server. All types carry camelCase JSON tags because the
// same shapes are returned by the REST API.
package types
