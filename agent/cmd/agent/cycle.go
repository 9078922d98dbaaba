package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/localrank/localrank/agent/internal/compute"
	"github.com/localrank/localrank/agent/internal/config"
	"github.com/localrank/localrank/pkg/score"
)

// calculator is the subset of *score.Calculator the scheduler needs.
type calculator interface {
	Calculate(ctx context.Context, name, address string) (*score.Report, error)
}

// scheduler scores every configured business once per cycle. The business
// list is swapped atomically on config reload.
type scheduler struct {
	calc   calculator
	engine *compute.Engine
	ship   func(*compute.Result)

	mu         sync.RWMutex
	businesses []config.Business
}

func newScheduler(calc calculator, ship func(*compute.Result), businesses []config.Business) *scheduler {
	return &scheduler{
		calc:       calc,
		engine:     compute.NewEngine(),
		ship:       ship,
		businesses: businesses,
	}
}

// setBusinesses replaces the list used by the next cycle and forgets the
// history of businesses that were removed.
func (s *scheduler) setBusinesses(bs []config.Business) {
	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	s.mu.Lock()
	s.businesses = bs
	s.mu.Unlock()
	s.engine.Retain(ids)
}

// runCycle scores the businesses sequentially and ships one result per business.
func (s *scheduler) runCycle(ctx context.Context, now time.Time) {
	s.mu.RLock()
	bs := s.businesses
	s.mu.RUnlock()

	for _, b := range bs {
		if ctx.Err() != nil {
			return
		}
		rep, err := s.calc.Calculate(ctx, b.Name, b.Address)
		res := s.engine.Process(compute.Outcome{
			BusinessID: b.ID,
			Name:       b.Name,
			Address:    b.Address,
			Report:     rep,
			Err:        err,
		}, now)
		s.ship(res)

		if res.ErrorMessage == "" {
			slog.Info("scored business",
				"business", b.ID,
				"total", res.Report.Score.Total,
				"rating", res.Report.Rating.Label,
				"delta", res.Delta,
			)
		}
	}
}

// run executes a cycle immediately and then once per interval until ctx ends.
func (s *scheduler) run(ctx context.Context, interval time.Duration) {
	s.runCycle(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.runCycle(ctx, t)
		}
	}
}
