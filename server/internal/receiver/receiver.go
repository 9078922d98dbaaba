package receiver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/metrics"
	"github.com/localrank/localrank/server/internal/store"
)

// maxBodyBytes caps one ingest request. A full agent batch of 1000 snapshots
// stays well below it.
const maxBodyBytes = 8 << 20

// Evaluator is notified of every accepted snapshot. *alerts.Engine satisfies it.
type Evaluator interface {
	Evaluate(snap *types.ScoreSnapshot)
}

// Publisher forwards accepted snapshots downstream. *publish.KafkaPublisher
// satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, snaps []*types.ScoreSnapshot) error
}

// Receiver is the HTTP handler behind POST /ingest/v1/snapshots.
// It validates each snapshot in a batch, stores it and fans it out to the
// alert engine. The optional publisher receives the whole batch in the
// background, after the response is written.
type Receiver struct {
	store     *store.Store
	evaluator Evaluator
	publisher Publisher

	inflight sync.WaitGroup
}

// New creates a Receiver that writes accepted snapshots to st.
// evaluator and publisher may be nil.
func New(st *store.Store, evaluator Evaluator, publisher Publisher) *Receiver {
	return &Receiver{store: st, evaluator: evaluator, publisher: publisher}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var batch types.SnapshotBatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error()})
		return
	}

	// Validate the whole batch before storing anything.
	for _, snap := range batch.Snapshots {
		if snap.BusinessID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "businessId is required"})
			return
		}
	}

	accepted := make([]*types.ScoreSnapshot, 0, len(batch.Snapshots))
	for i := range batch.Snapshots {
		snap := &batch.Snapshots[i]
		rc.accept(snap)
		accepted = append(accepted, snap)
	}

	// The agent's send timeout must not depend on broker latency, so the
	// publish outlives the request.
	rc.publish(context.WithoutCancel(r.Context()), accepted)

	writeJSON(w, http.StatusOK, types.IngestResponse{Accepted: len(batch.Snapshots)})
}

// Wait blocks until every background publish has returned.
// Call it after the HTTP server has shut down and before closing the publisher.
func (rc *Receiver) Wait() {
	rc.inflight.Wait()
}

func (rc *Receiver) publish(ctx context.Context, snaps []*types.ScoreSnapshot) {
	if rc.publisher == nil || len(snaps) == 0 {
		return
	}
	rc.inflight.Add(1)
	go func() {
		defer rc.inflight.Done()
		if err := rc.publisher.PublishBatch(ctx, snaps); err != nil {
			metrics.PublishFailures.Add(float64(len(snaps)))
			slog.Warn("receiver: publish failed", "snapshots", len(snaps), "err", err)
		}
	}()
}

func (rc *Receiver) accept(snap *types.ScoreSnapshot) {
	rc.store.Put(snap)

	if rc.evaluator != nil {
		rc.evaluator.Evaluate(snap)
	}

	label := snap.Rating.Label
	if label == "" {
		label = "none"
	}
	metrics.SnapshotsIngested.WithLabelValues(label).Inc()
	if snap.Score != nil {
		metrics.BusinessScore.WithLabelValues(snap.BusinessID).Set(float64(snap.Score.Total))
	}

	slog.Debug("receiver: snapshot stored",
		"business", snap.BusinessID,
		"total", snap.Total(),
		"rating", snap.Rating.Label,
		"error", snap.ErrorMessage,
	)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
