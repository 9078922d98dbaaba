package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/config"
	"github.com/localrank/localrank/server/internal/metrics"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"ruleName"`
	BusinessID string     `json:"businessId"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"firedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	State      string     `json:"state"`
}

// Engine evaluates alert rules against incoming ScoreSnapshots and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	client   *http.Client
	now      func() time.Time // injectable for deterministic tests

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:businessID"
	lastFire map[string]time.Time // last fire time per key, for cooldown
	history  []*Alert             // recently resolved alerts
}

// New creates an Engine from the server alert configuration.
// An Engine with empty rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
}

// Evaluate tests all configured rules against snap.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(snap *types.ScoreSnapshot) {
	if len(e.rules) == 0 {
		return
	}

	now := e.now()
	var notify []Alert

	e.mu.Lock()
	for _, rule := range e.rules {
		key := rule.Name + ":" + snap.BusinessID
		fires, value := evalCondition(rule.Condition, snap)

		if !fires {
			if a, ok := e.active[key]; ok {
				resolved := now
				a.State = StateResolved
				a.ResolvedAt = &resolved
				delete(e.active, key)
				e.history = append(e.history, a)
				if len(e.history) > maxHistoryLen {
					e.history = e.history[len(e.history)-maxHistoryLen:]
				}
				notify = append(notify, *a)
				slog.Info("alert resolved", "rule", rule.Name, "business", snap.BusinessID)
			}
			continue
		}

		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}
		// A condition that stays true re-fires once per cooldown.
		if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
			continue
		}

		sev := rule.Severity
		if sev == "" {
			sev = "warning"
		}
		a := &Alert{
			ID:         fmt.Sprintf("%s:%s:%d", rule.Name, snap.BusinessID, now.UnixNano()),
			RuleName:   rule.Name,
			BusinessID: snap.BusinessID,
			Severity:   sev,
			Value:      value,
			Message: fmt.Sprintf("[%s] %s fired for %s (%s): %s, value %.2f",
				sev, rule.Name, snap.Name, snap.BusinessID, rule.Condition, value),
			FiredAt: now,
			State:   StateFiring,
		}
		e.active[key] = a
		e.lastFire[key] = now
		notify = append(notify, *a)

		metrics.AlertsFired.WithLabelValues(rule.Name, sev).Inc()
		slog.Warn("alert fired",
			"rule", rule.Name,
			"business", snap.BusinessID,
			"value", value,
			"severity", sev,
		)
	}
	e.mu.Unlock()

	if len(notify) > 0 && len(e.webhooks) > 0 {
		go func() {
			for i := range notify {
				e.deliver(&notify[i])
			}
		}()
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// FiringCount returns the number of alerts currently firing.
func (e *Engine) FiringCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
