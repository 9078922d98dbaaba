package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/config"
)

func scoredSnapshot(id string, total int, position int) *types.ScoreSnapshot {
	return &types.ScoreSnapshot{
		BusinessID: id,
		Name:       "Joe's Pizza",
		Score: &types.CompositeScore{
			Total:      total,
			Details:    types.ScoreBreakdown{GoogleRanking: float64(100 - position), SocialMediaPresence: 25},
			SearchData: types.SearchData{GooglePosition: position},
		},
		Rating:          score.Classify(total),
		Recommendations: make([]types.Recommendation, 2),
		Delta:           -12,
		FetchSuccessPct: 75,
	}
}

func TestEvalCondition(t *testing.T) {
	snap := scoredSnapshot("b", 35, 40)

	tests := []struct {
		cond      string
		wantFire  bool
		wantValue float64
	}{
		{"total < 40", true, 35},
		{"total >= 40", false, 35},
		{"google_ranking < 70", true, 60},
		{"google_position > 20", true, 40},
		{"social_media_presence <= 25", true, 25},
		{"delta <= -10", true, -12},
		{"fetch_success_pct < 80", true, 75},
		{"recommendations >= 3", false, 2},
		{"rating == POOR", true, 35},
		{"rating == poor", true, 35},
		{"rating != POOR", false, 35},
		{"rating > POOR", false, 0},
		{"total ~ 40", false, 35},
		{"unknown_field > 1", false, 0},
		{"total < forty", false, 0},
		{"total<40", false, 0},
	}
	for _, tc := range tests {
		fires, v := evalCondition(tc.cond, snap)
		if fires != tc.wantFire || v != tc.wantValue {
			t.Errorf("%q: got (%v, %v), want (%v, %v)", tc.cond, fires, v, tc.wantFire, tc.wantValue)
		}
	}
}

func TestEvalCondition_NoScore(t *testing.T) {
	snap := &types.ScoreSnapshot{BusinessID: "new", FetchSuccessPct: 0, ErrorMessage: score.UserMessage}

	if fires, _ := evalCondition("total < 40", snap); fires {
		t.Error("score condition fired for a business without a score")
	}
	if fires, _ := evalCondition("rating == POOR", snap); fires {
		t.Error("rating condition fired for a business without a score")
	}
	if fires, _ := evalCondition("fetch_success_pct < 50", snap); !fires {
		t.Error("fetch_success_pct should fire without a score")
	}
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestEngine(rules ...config.AlertRule) (*Engine, *clock) {
	c := &clock{t: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	e := New(config.AlertsConfig{Rules: rules})
	e.now = c.now
	return e, c
}

func TestEngine_FireAndResolve(t *testing.T) {
	e, c := newTestEngine(config.AlertRule{Name: "low-score", Condition: "total < 40", Severity: "critical"})

	e.Evaluate(scoredSnapshot("b", 35, 40))
	active := e.Active()
	if len(active) != 1 || active[0].State != StateFiring {
		t.Fatalf("after firing: %+v", active)
	}
	if active[0].Severity != "critical" || active[0].BusinessID != "b" {
		t.Errorf("alert = %+v", active[0])
	}
	if e.FiringCount() != 1 {
		t.Errorf("FiringCount = %d, want 1", e.FiringCount())
	}

	c.t = c.t.Add(time.Minute)
	e.Evaluate(scoredSnapshot("b", 55, 10))
	active = e.Active()
	if len(active) != 1 || active[0].State != StateResolved || active[0].ResolvedAt == nil {
		t.Fatalf("after resolve: %+v", active)
	}
	if e.FiringCount() != 0 {
		t.Errorf("FiringCount = %d, want 0", e.FiringCount())
	}

	// Resolved alerts drop out of Active after an hour.
	c.t = c.t.Add(2 * time.Hour)
	if n := len(e.Active()); n != 0 {
		t.Errorf("Active after window = %d, want 0", n)
	}
}

func TestEngine_Cooldown(t *testing.T) {
	e, c := newTestEngine(config.AlertRule{Name: "low-score", Condition: "total < 40", Cooldown: 30 * time.Minute})

	e.Evaluate(scoredSnapshot("b", 35, 40))
	first := e.Active()[0].FiredAt

	c.t = c.t.Add(10 * time.Minute)
	e.Evaluate(scoredSnapshot("b", 30, 40))
	if got := e.Active()[0].FiredAt; !got.Equal(first) {
		t.Errorf("re-fired within cooldown at %v", got)
	}

	c.t = c.t.Add(30 * time.Minute)
	e.Evaluate(scoredSnapshot("b", 30, 40))
	if got := e.Active()[0].FiredAt; !got.Equal(c.t) {
		t.Errorf("FiredAt = %v, want re-fire at %v", got, c.t)
	}
	if sev := e.Active()[0].Severity; sev != "warning" {
		t.Errorf("default severity = %q, want warning", sev)
	}
}

func TestEngine_PerBusinessKeys(t *testing.T) {
	e, _ := newTestEngine(config.AlertRule{Name: "poor", Condition: "rating == POOR"})

	e.Evaluate(scoredSnapshot("a", 20, 80))
	e.Evaluate(scoredSnapshot("b", 25, 80))
	if n := e.FiringCount(); n != 2 {
		t.Errorf("FiringCount = %d, want 2", n)
	}
}

func TestEngine_NoRulesIsNoop(t *testing.T) {
	e := New(config.AlertsConfig{})
	e.Evaluate(scoredSnapshot("a", 0, 100))
	if len(e.Active()) != 0 {
		t.Error("engine without rules produced alerts")
	}
}

func TestEngine_DeliversWebhooks(t *testing.T) {
	bodies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
	}))
	defer srv.Close()

	t.Setenv("SLACK_URL", srv.URL)
	t.Setenv("HOOK_URL", srv.URL)
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "low-score", Condition: "total < 40", Severity: "critical"}},
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "SLACK_URL"},
			{Type: "http", URLEnv: "HOOK_URL"},
			{Type: "teams"}, // no URL, skipped
		},
	})

	e.Evaluate(scoredSnapshot("b", 35, 40))

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case b := <-bodies:
			got = append(got, b)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d webhook calls, want 2", len(got))
		}
	}

	if !strings.Contains(got[0], "[CRITICAL]") {
		t.Errorf("slack body = %s", got[0])
	}
	var generic struct {
		Alert Alert `json:"alert"`
	}
	if err := json.Unmarshal([]byte(got[1]), &generic); err != nil {
		t.Fatalf("http body: %v", err)
	}
	if generic.Alert.RuleName != "low-score" || generic.Alert.Value != 35 {
		t.Errorf("http alert = %+v", generic.Alert)
	}
}

func TestWebhookBody(t *testing.T) {
	fired := &Alert{RuleName: "poor", BusinessID: "joes", Severity: "warning", Value: 38, State: StateFiring, Message: "m"}
	resolved := *fired
	resolved.State = StateResolved

	tests := []struct {
		typ  string
		a    *Alert
		want []string
	}{
		{"slack", fired, []string{"[WARNING]", `"value":"38"`, "ECB22E"}},
		{"slack", &resolved, []string{"[RESOLVED] poor for joes"}},
		{"teams", fired, []string{"MessageCard", "LocalRank alert: poor", `"name":"Business"`}},
		{"teams", &resolved, []string{"LocalRank alert resolved: poor"}},
		{"http", fired, []string{`"event":"alert.fired"`, `"businessId":"joes"`}},
		{"http", &resolved, []string{`"event":"alert.resolved"`}},
	}
	for _, tc := range tests {
		body, err := webhookBody(tc.typ, tc.a)
		if err != nil {
			t.Fatalf("%s: %v", tc.typ, err)
		}
		for _, w := range tc.want {
			if !strings.Contains(string(body), w) {
				t.Errorf("%s/%s body %s missing %q", tc.typ, tc.a.State, body, w)
			}
		}
	}

	if _, err := webhookBody("pagerduty", fired); err == nil {
		t.Error("unknown type accepted")
	}
}
