package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/localrank/localrank/agent/internal/compute"
	"github.com/localrank/localrank/agent/internal/config"
	"github.com/localrank/localrank/pkg/types"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// errPermanent marks a response the server will never accept; the batch is
// discarded instead of retried.
var errPermanent = errors.New("permanent rejection")

// Shipper buffers compute.Results and ships them to localrank-server over HTTP.
// Ship() is non-blocking; when the buffer is full the oldest snapshot is evicted.
// Run() must be called in a goroutine to drain the buffer.
type Shipper struct {
	cfg    config.AgentConfig
	buf    chan types.ScoreSnapshot
	client *http.Client

	backoffInitial time.Duration // injectable for tests
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) *Shipper {
	return &Shipper{
		cfg:            cfg,
		buf:            make(chan types.ScoreSnapshot, cfg.BufferSize),
		client:         &http.Client{Timeout: sendTimeout},
		backoffInitial: backoffInitial,
	}
}

// Ship converts a compute.Result to a snapshot and enqueues it.
// If the buffer is full the oldest entry is evicted to make room.
func (s *Shipper) Ship(res *compute.Result) {
	snap := toSnapshot(res)
	for {
		select {
		case s.buf <- snap:
			return
		default:
		}
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest snapshot",
				"business", res.BusinessID, "buffer_cap", cap(s.buf))
		default:
		}
	}
}

// Run sends everything buffered to the server once per ShipInterval.
// Transient failures are retried with exponential backoff; the batch is kept
// until it is delivered or permanently rejected. Run blocks until ctx is
// cancelled.
func (s *Shipper) Run(ctx context.Context) {
	t := time.NewTicker(s.cfg.ShipInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if batch := s.collect(); len(batch) > 0 {
				s.deliver(ctx, batch)
			}
		}
	}
}

// collect drains the buffer without blocking.
func (s *Shipper) collect() []types.ScoreSnapshot {
	var batch []types.ScoreSnapshot
	for {
		select {
		case snap := <-s.buf:
			batch = append(batch, snap)
		default:
			return batch
		}
	}
}

// deliver sends batch, retrying transient failures until ctx is cancelled.
func (s *Shipper) deliver(ctx context.Context, batch []types.ScoreSnapshot) {
	bo := newBackoff(s.backoffInitial)
	for {
		err := s.send(ctx, batch)
		if err == nil {
			slog.Debug("shipper: batch delivered", "snapshots", len(batch))
			return
		}
		if errors.Is(err, errPermanent) {
			slog.Error("shipper: permanent send error, discarding batch",
				"snapshots", len(batch), "err", err)
			return
		}

		wait := bo.next()
		slog.Warn("shipper: send failed, will retry",
			"endpoint", s.cfg.ServerEndpoint,
			"err", err,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// send POSTs one batch. 4xx responses other than 429 are permanent.
func (s *Shipper) send(ctx context.Context, batch []types.ScoreSnapshot) error {
	body, err := json.Marshal(types.SnapshotBatch{Snapshots: batch})
	if err != nil {
		return fmt.Errorf("marshal batch: %w: %w", errPermanent, err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	url := strings.TrimRight(s.cfg.ServerEndpoint, "/") + types.IngestPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w: %w", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.ServerAuth.Mode == "apikey" {
		req.Header.Set(s.cfg.ServerAuth.Header, s.cfg.ServerAuth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("server status %d", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("server status %d: %w", resp.StatusCode, errPermanent)
	default:
		return fmt.Errorf("server status %d", resp.StatusCode)
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff(initial time.Duration) *backoff {
	return &backoff{current: initial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25% jitter
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
