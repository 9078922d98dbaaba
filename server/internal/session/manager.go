package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/server/internal/metrics"
)

// ErrSuperseded is returned to a caller whose calculation was replaced by a
// newer request in the same session.
var ErrSuperseded = errors.New("session: superseded by a newer request")

// Calculator runs one scoring calculation. *score.Calculator satisfies it.
type Calculator interface {
	Calculate(ctx context.Context, name, address string) (*score.Report, error)
}

// State is the externally visible view of a session.
type State struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	Loading   bool          `json:"loading"`
	Error     string        `json:"error,omitempty"`
	Report    *score.Report `json:"report,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type session struct {
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// Manager owns all sessions. It is safe for concurrent use.
type Manager struct {
	calc Calculator
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager returns a Manager that evicts sessions idle for longer than ttl.
func NewManager(calc Calculator, ttl time.Duration) *Manager {
	return &Manager{
		calc:     calc,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Calculate runs a calculation for the session id, creating the session if
// needed. Any calculation already in flight for id is cancelled.
//
// On failure the returned error wraps the calculator's error and the session
// keeps its previous report. If a newer request arrives before this one
// completes, ErrSuperseded is returned and the session is left to the newer
// request.
func (m *Manager) Calculate(ctx context.Context, id, name, address string) (*score.Report, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{state: State{ID: id}}
		m.sessions[id] = s
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	calcCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Name = name
	s.state.Address = address
	s.state.Loading = true
	s.state.Error = ""
	s.state.UpdatedAt = m.now()
	m.mu.Unlock()

	rep, err := m.calc.Calculate(calcCtx, name, address)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if s.gen != gen {
		slog.Debug("session: calculation superseded", "session", id)
		return nil, ErrSuperseded
	}
	s.cancel = nil
	s.state.Loading = false
	s.state.UpdatedAt = m.now()
	if err != nil {
		s.state.Error = score.UserMessage
		return nil, err
	}
	s.state.Report = rep
	return rep, nil
}

// Get returns a copy of the session state.
func (m *Manager) Get(id string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return State{}, false
	}
	return s.state, true
}

// Count returns the number of sessions held.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict removes sessions that are not loading and were last updated more
// than the TTL before now. It returns the number removed.
func (m *Manager) Evict(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-m.ttl)
	removed := 0
	for id, s := range m.sessions {
		if !s.state.Loading && !s.state.UpdatedAt.After(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return removed
}

// Run evicts idle sessions every minute until ctx is cancelled. In-flight
// calculations are cancelled on return.
func (m *Manager) Run(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			m.cancelAll()
			return
		case now := <-t.C:
			if n := m.Evict(now); n > 0 {
				slog.Debug("session: evicted idle sessions", "count", n)
			}
		}
	}
}

func (m *Manager) cancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.cancel != nil {
			s.cancel()
		}
	}
}
