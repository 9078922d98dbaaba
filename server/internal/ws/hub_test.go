package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/api"
	"github.com/localrank/localrank/server/internal/session"
	"github.com/localrank/localrank/server/internal/store"
	wsHub "github.com/localrank/localrank/server/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

func newStore(snaps ...*types.ScoreSnapshot) *store.Store {
	st := store.New(5 * time.Minute)
	for _, s := range snaps {
		st.Put(s)
	}
	return st
}

func snap(id string, total int) *types.ScoreSnapshot {
	return &types.ScoreSnapshot{
		BusinessID: id,
		Name:       "Biz " + id,
		Score:      &types.CompositeScore{Total: total},
	}
}

func board(st *store.Store) wsHub.BoardSource {
	return api.New(st, nil, session.NewManager(nil, time.Minute), nil)
}

// startHub serves the hub from an httptest server and runs its broadcast
// loop until the returned cancel is called or the test ends.
func startHub(t *testing.T, st *store.Store) (wsURL string, hub *wsHub.Hub, cancel func()) {
	t.Helper()

	hub = wsHub.New(board(st), testInterval, nil)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(hub)
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub, cancelFn
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m wsHub.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// waitCount polls hub.Count until it equals want or a second passes.
func waitCount(t *testing.T, hub *wsHub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("Count: got %d, want %d", hub.Count(), want)
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateBoard(t *testing.T) {
	wsURL, _, _ := startHub(t, newStore(snap("joes", 54)))

	m := readMessage(t, dial(t, wsURL))
	if m.Event != "board" {
		t.Errorf("event: got %q, want board", m.Event)
	}
	if m.Data.GeneratedAt == "" {
		t.Error("generated_at: missing")
	}
	if len(m.Data.Businesses) != 1 || m.Data.Businesses[0].BusinessID != "joes" {
		t.Errorf("businesses: got %+v", m.Data.Businesses)
	}
}

func TestHub_EmptyStore_EmptyBoard(t *testing.T) {
	wsURL, _, _ := startHub(t, newStore())
	m := readMessage(t, dial(t, wsURL))
	if len(m.Data.Businesses) != 0 {
		t.Errorf("businesses: got %d, want 0", len(m.Data.Businesses))
	}
}

func TestHub_CountClients(t *testing.T) {
	wsURL, hub, _ := startHub(t, newStore())

	for i := 0; i < 3; i++ {
		readMessage(t, dial(t, wsURL))
	}
	waitCount(t, hub, 3)
}

func TestHub_CountClients_DecreasesOnDisconnect(t *testing.T) {
	wsURL, hub, _ := startHub(t, newStore())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitCount(t, hub, 1)

	conn.Close()
	waitCount(t, hub, 0)
}

func TestHub_ReceivesBroadcastOnTick(t *testing.T) {
	st := newStore()
	wsURL, _, _ := startHub(t, st)

	conn := dial(t, wsURL)
	readMessage(t, conn)

	st.Put(snap("new-biz", 70))

	// A tick may already be queued from before the Put; read until the new
	// business shows up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m := readMessage(t, conn)
		if len(m.Data.Businesses) == 1 {
			if got := m.Data.Businesses[0].Total(); got != 70 {
				t.Errorf("total: got %d, want 70", got)
			}
			return
		}
	}
	t.Fatal("tick broadcast never included new-biz")
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, cancel := startHub(t, newStore())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitCount(t, hub, 1)

	cancel()
	waitCount(t, hub, 0)
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	srv := httptest.NewServer(wsHub.New(board(newStore()), testInterval, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestHub_CheckOriginRejects(t *testing.T) {
	hub := wsHub.New(board(newStore()), testInterval, func(*http.Request) bool { return false })
	srv := httptest.NewServer(hub)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		t.Fatal("dial succeeded with rejecting origin check")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %+v", resp)
	}
}
