package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded by ScoreRequests.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeSuperseded  = "superseded"
	OutcomeFetchError  = "fetch_error"
	OutcomeRateLimited = "rate_limited"
)

var (
	SnapshotsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localrank_snapshots_ingested_total",
			Help: "Total number of snapshots accepted from agents, by rating",
		},
		[]string{"rating"},
	)

	BusinessScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "localrank_business_score",
			Help: "Latest composite SEO score per business",
		},
		[]string{"business_id"},
	)

	ScoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localrank_score_requests_total",
			Help: "Total number of on-demand score requests, by outcome",
		},
		[]string{"outcome"},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localrank_score_duration_seconds",
			Help:    "Duration of on-demand score calculations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 5, 10},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localrank_sessions_active",
			Help: "Number of scoring sessions currently held",
		},
	)

	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localrank_alerts_fired_total",
			Help: "Total number of alerts fired, by rule and severity",
		},
		[]string{"rule", "severity"},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localrank_publish_failures_total",
			Help: "Total number of snapshots that could not be published to Kafka",
		},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localrank_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)
