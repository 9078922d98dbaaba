package shipper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/localrank/localrank/agent/internal/compute"
	"github.com/localrank/localrank/agent/internal/config"
	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/types"
)

// mockServer records the batches it accepts. The first failN requests are
// answered with failStatus.
type mockServer struct {
	mu         sync.Mutex
	received   []types.ScoreSnapshot
	requests   int
	failN      int
	failStatus int
	apiKey     string
}

func (m *mockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++

	if r.URL.Path != types.IngestPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if m.apiKey != "" && r.Header.Get("X-API-Key") != m.apiKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if m.failN > 0 {
		m.failN--
		http.Error(w, "mock failure", m.failStatus)
		return
	}
	var batch types.SnapshotBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.received = append(m.received, batch.Snapshots...)
	_ = json.NewEncoder(w).Encode(types.IngestResponse{Accepted: len(batch.Snapshots)})
}

func (m *mockServer) snapshots() []types.ScoreSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ScoreSnapshot(nil), m.received...)
}

func (m *mockServer) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

func startTestServer(t *testing.T, m *mockServer) string {
	t.Helper()
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	return srv.URL
}

func makeComputeResult(id string, total int) *compute.Result {
	return &compute.Result{
		BusinessID: id,
		Name:       "Joe's Pizza",
		Address:    "1 Main St",
		Timestamp:  time.Unix(1700000000, 0),
		Report: &score.Report{
			Score:  types.CompositeScore{Total: total},
			Rating: score.Classify(total),
			Recommendations: []types.Recommendation{
				{Category: score.CategoryReviews, Priority: types.PriorityHigh},
			},
		},
		Delta:           3,
		FetchSuccessPct: 95,
	}
}

func newTestShipper(endpoint string) *Shipper {
	s := New(config.AgentConfig{
		ServerEndpoint: endpoint,
		BufferSize:     10,
		ShipInterval:   10 * time.Millisecond,
	})
	s.backoffInitial = time.Millisecond
	return s
}

// waitFor polls cond until it holds or two seconds elapse.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestShipper_DeliversSnapshot(t *testing.T) {
	m := &mockServer{}
	s := newTestShipper(startTestServer(t, m))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Ship(makeComputeResult("joes", 54))
	waitFor(t, func() bool { return len(m.snapshots()) > 0 })

	snap := m.snapshots()[0]
	if snap.BusinessID != "joes" {
		t.Errorf("BusinessID = %q, want joes", snap.BusinessID)
	}
	if snap.Total() != 54 || snap.Rating.Label != score.LabelFair {
		t.Errorf("score = %d/%s", snap.Total(), snap.Rating.Label)
	}
	if snap.Delta != 3 || snap.FetchSuccessPct != 95 {
		t.Errorf("history fields = %v/%v", snap.Delta, snap.FetchSuccessPct)
	}
	if snap.TimestampUnix != 1700000000 {
		t.Errorf("TimestampUnix = %d", snap.TimestampUnix)
	}
}

func TestShipper_MultipleSnapshots(t *testing.T) {
	m := &mockServer{}
	s := newTestShipper(startTestServer(t, m))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for i := 0; i < 5; i++ {
		s.Ship(makeComputeResult("b", 40+i))
	}
	waitFor(t, func() bool { return len(m.snapshots()) == 5 })
}

func TestShipper_RetriesTransientErrors(t *testing.T) {
	for _, status := range []int{http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		m := &mockServer{failN: 2, failStatus: status}
		s := newTestShipper(startTestServer(t, m))

		ctx, cancel := context.WithCancel(context.Background())
		go s.Run(ctx)

		s.Ship(makeComputeResult("joes", 54))
		waitFor(t, func() bool { return len(m.snapshots()) == 1 })
		if n := m.requestCount(); n != 3 {
			t.Errorf("status %d: requests = %d, want 3", status, n)
		}
		cancel()
	}
}

func TestShipper_PermanentErrorDiscards(t *testing.T) {
	m := &mockServer{apiKey: "expected"}
	s := newTestShipper(startTestServer(t, m))

	err := s.send(context.Background(), []types.ScoreSnapshot{toSnapshot(makeComputeResult("joes", 54))})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("send() error = %v, want permanent", err)
	}
}

func TestShipper_SendsAPIKey(t *testing.T) {
	t.Setenv("LOCALRANK_TEST_KEY", "expected")
	m := &mockServer{apiKey: "expected"}
	s := New(config.AgentConfig{
		ServerEndpoint: startTestServer(t, m) + "/",
		BufferSize:     1,
		ShipInterval:   time.Second,
		ServerAuth:     config.AuthConfig{Mode: "apikey", Header: "X-API-Key", KeyEnv: "LOCALRANK_TEST_KEY"},
	})

	if err := s.send(context.Background(), []types.ScoreSnapshot{toSnapshot(makeComputeResult("joes", 54))}); err != nil {
		t.Fatalf("send() error = %v", err)
	}
	if len(m.snapshots()) != 1 {
		t.Errorf("server received %d snapshots, want 1", len(m.snapshots()))
	}
}

func TestShipper_BufferEvictsOldest(t *testing.T) {
	s := New(config.AgentConfig{ServerEndpoint: "http://unused", BufferSize: 3, ShipInterval: time.Hour})

	for i := 0; i < 5; i++ {
		s.Ship(makeComputeResult("b", i))
	}

	batch := s.collect()
	if len(batch) != 3 {
		t.Fatalf("buffered %d, want 3", len(batch))
	}
	if got := batch[0].Total(); got != 2 {
		t.Errorf("oldest kept total = %d, want 2", got)
	}
	if got := batch[2].Total(); got != 4 {
		t.Errorf("newest total = %d, want 4", got)
	}
}

func TestToSnapshot_NeverScored(t *testing.T) {
	snap := toSnapshot(&compute.Result{
		BusinessID:   "new",
		Timestamp:    time.Unix(1, 0),
		ErrorMessage: score.UserMessage,
	})
	if snap.Score != nil {
		t.Errorf("Score = %+v, want nil", snap.Score)
	}
	if snap.Recommendations == nil {
		t.Error("Recommendations should be an empty slice, not nil")
	}
	if snap.ErrorMessage != score.UserMessage {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(time.Second)
	var last time.Duration
	for i := 0; i < 10; i++ {
		last = b.next()
	}
	if last < 45*time.Second || last > 75*time.Second {
		t.Errorf("backoff after 10 steps = %v, want ~60s", last)
	}
}
