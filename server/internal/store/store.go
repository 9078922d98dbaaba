package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/localrank/localrank/pkg/types"
)

// Entry is the latest snapshot for a business plus bookkeeping about how
// often it has been reported.
type Entry struct {
	Snapshot  *types.ScoreSnapshot
	UpdatedAt time.Time

	// FirstSeen is when the business was first stored since it was last
	// evicted; Updates counts snapshots received since then.
	FirstSeen time.Time
	Updates   int
}

// Store is a thread-safe in-memory snapshot store, keyed by business id.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the snapshot for snap.BusinessID. Entries are
// replaced, never mutated, so readers may keep a returned *Entry.
// Callers must not modify snap after calling Put.
func (s *Store) Put(snap *types.ScoreSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := &Entry{Snapshot: snap, UpdatedAt: now, FirstSeen: now, Updates: 1}
	if prev, ok := s.data[snap.BusinessID]; ok {
		e.FirstSeen = prev.FirstSeen
		e.Updates = prev.Updates + 1
	}
	s.data[snap.BusinessID] = e
}

// Get returns the entry for a business if it is within the TTL.
func (s *Store) Get(businessID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[businessID]
	if !ok || !s.live(e) {
		return nil, false
	}
	return e, true
}

// List returns all entries whose UpdatedAt is within the TTL, ordered by
// business id. Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if s.live(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Snapshot.BusinessID < out[j].Snapshot.BusinessID
	})
	return out
}

// live must be called with mu held.
func (s *Store) live(e *Entry) bool {
	return e.UpdatedAt.After(s.now().Add(-s.ttl))
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval, capped to [1s, 1h]. Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale snapshots", "count", n)
			}
		}
	}
}
