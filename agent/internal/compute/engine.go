package compute

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/localrank/localrank/pkg/score"
)

// fetchWindow is the number of recent fetch outcomes tracked for fetchSuccessPct.
const fetchWindow = 20

// Outcome is the result of one scoring attempt for a business, as produced by
// score.Calculator. Exactly one of Report and Err is non-nil.
type Outcome struct {
	BusinessID string
	Name       string
	Address    string
	Report     *score.Report
	Err        error
}

// Result is the per-business snapshot handed to the shipper.
type Result struct {
	BusinessID string
	Name       string
	Address    string
	Timestamp  time.Time

	// Report is the most recent successful report. On a failed cycle it is
	// the previous cycle's report, or nil if the business never scored.
	Report *score.Report

	// Delta is the change in total since the previous successful report.
	Delta float64

	// FetchSuccessPct is the share of the last 20 fetches that succeeded.
	FetchSuccessPct float64

	// ErrorMessage is the user-facing failure message; empty on success.
	ErrorMessage string
}

// Engine maintains per-business state across scoring cycles.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	states map[string]*businessState
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{states: make(map[string]*businessState)}
}

// Process records an Outcome and returns the derived Result.
//
// now is passed explicitly so callers (and tests) control the clock without
// sleeping. Use time.Now() in production.
//
// The first successful report for a business has Delta 0.
func (e *Engine) Process(o Outcome, now time.Time) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.stateFor(o.BusinessID)
	success := o.Err == nil && o.Report != nil
	st.recordFetch(success)

	out := &Result{
		BusinessID:      o.BusinessID,
		Name:            o.Name,
		Address:         o.Address,
		Timestamp:       now,
		FetchSuccessPct: st.successPct(),
	}

	if !success {
		slog.Warn("compute: score calculation failed, keeping last report",
			"business", o.BusinessID, "err", o.Err)
		out.ErrorMessage = score.UserMessage
		out.Report = st.last
		return out
	}

	if st.last != nil {
		out.Delta = float64(o.Report.Score.Total - st.last.Score.Total)
	}
	out.Report = o.Report
	st.last = o.Report
	return out
}

// Retain drops the state of every business whose id is not in ids. It is
// called after a config reload removes businesses.
func (e *Engine) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.states {
		if !keep[id] {
			delete(e.states, id)
		}
	}
}

// businessState holds the last report and fetch history of one business.
type businessState struct {
	last    *score.Report
	history []bool // fetch outcomes, newest last
}

func (e *Engine) stateFor(id string) *businessState {
	if st, ok := e.states[id]; ok {
		return st
	}
	st := &businessState{}
	e.states[id] = st
	return st
}

func (st *businessState) recordFetch(success bool) {
	if len(st.history) >= fetchWindow {
		st.history = st.history[1:]
	}
	st.history = append(st.history, success)
}

func (st *businessState) successPct() float64 {
	if len(st.history) == 0 {
		return 100
	}
	var ok int
	for _, s := range st.history {
		if s {
			ok++
		}
	}
	return math.Round(float64(ok)/float64(len(st.history))*1000) / 10
}
