package api

import (
	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/alerts"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// AverageScore is the mean total over live businesses that have a score.
	AverageScore  float64 `json:"average_score"`
	Rating        string  `json:"rating"` // GOOD | FAIR | POOR | UNKNOWN
	BusinessCount int     `json:"business_count"`
	GoodCount     int     `json:"good_count"`
	FairCount     int     `json:"fair_count"`
	PoorCount     int     `json:"poor_count"`
	UnscoredCount int     `json:"unscored_count"`
	FailingCount  int     `json:"failing_count"`
	AlertCount    int     `json:"alert_count"`
}

// BusinessResponse is one entry in GET /api/v1/businesses or
// GET /api/v1/businesses/{id}.
type BusinessResponse struct {
	*types.ScoreSnapshot
	LastSeen  string `json:"last_seen"`  // RFC3339
	FirstSeen string `json:"first_seen"` // RFC3339
	Updates   int    `json:"updates"`
}

// InsightsResponse is the payload for GET /api/v1/businesses/{id}/insights.
type InsightsResponse struct {
	BusinessID string    `json:"business_id"`
	Insights   []Insight `json:"insights"`
}

// ScoreRequest is the body of POST /api/v1/score.
type ScoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ScoreResponse is the payload of a successful POST /api/v1/score.
type ScoreResponse struct {
	SessionID string `json:"session_id"`
	*score.Report
}

// SnapshotResponse is the payload for GET /api/v1/snapshot.
type SnapshotResponse struct {
	Businesses  []BusinessResponse `json:"businesses"`
	Alerts      []*alerts.Alert    `json:"alerts"`
	GeneratedAt string             `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
