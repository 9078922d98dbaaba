package signals

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/localrank/localrank/pkg/types"
)

// ErrSimulatedOutage is returned by a Simulated source when it rolls a failure.
var ErrSimulatedOutage = errors.New("signals: simulated data source outage")

const simulatedCompetitors = 5

// Simulated produces plausible random signals after an artificial delay. It
// stands in for a real data provider in development and demos.
type Simulated struct {
	delay       time.Duration
	failureRate float64

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSimulated returns a Simulated source. rng must not be shared with other
// goroutines; Simulated serialises its own access to it.
func NewSimulated(delay time.Duration, failureRate float64, rng *rand.Rand) *Simulated {
	return &Simulated{delay: delay, failureRate: failureRate, rng: rng}
}

// Fetch waits for the configured delay, then returns random signals. The
// name and address do not influence the result.
func (s *Simulated) Fetch(ctx context.Context, _, _ string) (*types.RawSignals, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		return nil, ErrSimulatedOutage
	}

	raw := &types.RawSignals{
		SearchData: types.SearchData{
			GooglePosition:      s.between(1, 100),
			MonthlySearches:     s.between(100, 10000),
			CompetitorPositions: make([]int, simulatedCompetitors),
		},
		SocialMedia: make(map[types.Platform]types.SocialProfile, len(types.Platforms)),
		Reviews:     make(map[types.ReviewSource]types.ReviewStats, len(types.ReviewSources)),
	}
	for i := range raw.SearchData.CompetitorPositions {
		raw.SearchData.CompetitorPositions[i] = s.between(1, 100)
	}
	for _, p := range types.Platforms {
		var prof types.SocialProfile
		if s.rng.Intn(2) == 1 {
			prof = types.SocialProfile{Exists: true, Followers: s.between(100, 10000)}
		}
		raw.SocialMedia[p] = prof
	}
	raw.Reviews[types.Google] = types.ReviewStats{Rating: s.rating(), Count: s.between(0, 200)}
	raw.Reviews[types.Yelp] = types.ReviewStats{Rating: s.rating(), Count: s.between(0, 100)}
	return raw, nil
}

// between returns an int in [lo, hi].
func (s *Simulated) between(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// rating returns a star rating in [3, 5] with one decimal.
func (s *Simulated) rating() float64 {
	return math.Round((3+s.rng.Float64()*2)*10) / 10
}
