package api

import (
	"fmt"
	"sort"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/types"
)

// Insight levels, most severe first.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
	LevelOK       = "ok"
)

// deltaThreshold is the minimum change in total worth a chip.
const deltaThreshold = 5

// Insight is one presentation chip shown on a business card. Title is the
// short chip label; Detail is the explanation shown on click.
type Insight struct {
	Key    string   `json:"key"`
	Level  string   `json:"level"`
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Value  *float64 `json:"value,omitempty"`
}

// computeInsights derives chips from a snapshot, critical first.
func computeInsights(snap *types.ScoreSnapshot) []Insight {
	var out []Insight

	if snap.ErrorMessage != "" {
		detail := "The latest attempt to collect data for this business failed. "
		if snap.Score == nil {
			detail += "No score is available yet; the agent will retry on its next cycle."
		} else {
			detail += fmt.Sprintf("The score shown (%d) is from the last successful calculation.", snap.Score.Total)
		}
		out = append(out, Insight{Key: "fetch_failed", Level: LevelCritical, Title: "Data fetch failed", Detail: detail})
		if snap.Score == nil {
			return out
		}
	}

	if snap.FetchSuccessPct > 0 && snap.FetchSuccessPct < 100 {
		v := snap.FetchSuccessPct
		level := LevelInfo
		if v < 80 {
			level = LevelWarning
		}
		out = append(out, Insight{
			Key:   "fetch_reliability",
			Level: level,
			Title: fmt.Sprintf("%.0f%% fetch success", v),
			Detail: fmt.Sprintf("%.0f%% of recent data fetches for this business succeeded. "+
				"Frequent failures usually mean the data source is rate limiting or unreachable.", v),
			Value: &v,
		})
	}

	for _, rec := range snap.Recommendations {
		out = append(out, Insight{
			Key:    recommendationKey(rec.Category),
			Level:  levelForStatus(rec.Status),
			Title:  rec.Category,
			Detail: rec.Message + " " + rec.Improvement,
		})
	}

	switch d := snap.Delta; {
	case d <= -deltaThreshold:
		v := d
		out = append(out, Insight{
			Key:    "score_drop",
			Level:  LevelWarning,
			Title:  fmt.Sprintf("Down %.0f points", -d),
			Detail: fmt.Sprintf("The total score fell by %.0f points since the previous calculation.", -d),
			Value:  &v,
		})
	case d >= deltaThreshold:
		v := d
		out = append(out, Insight{
			Key:    "score_gain",
			Level:  LevelInfo,
			Title:  fmt.Sprintf("Up %.0f points", d),
			Detail: fmt.Sprintf("The total score rose by %.0f points since the previous calculation.", d),
			Value:  &v,
		})
	}

	if len(out) == 0 && snap.Score != nil {
		v := float64(snap.Score.Total)
		out = append(out, Insight{
			Key:   "healthy",
			Level: LevelOK,
			Title: "All clear",
			Detail: fmt.Sprintf("Rated %s with a score of %d/100. No recommendation rule "+
				"is triggered.", score.Classify(snap.Score.Total).Label, snap.Score.Total),
			Value: &v,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return levelRank(out[i].Level) < levelRank(out[j].Level) })
	return out
}

func levelForStatus(s types.Status) string {
	switch s {
	case types.StatusPoor:
		return LevelCritical
	case types.StatusWarning:
		return LevelWarning
	case types.StatusGood:
		return LevelOK
	default:
		return LevelInfo
	}
}

func levelRank(level string) int {
	switch level {
	case LevelCritical:
		return 0
	case LevelWarning:
		return 1
	case LevelInfo:
		return 2
	default:
		return 3
	}
}

func recommendationKey(category string) string {
	switch category {
	case score.CategoryRanking:
		return "ranking"
	case score.CategorySocial:
		return "social"
	case score.CategoryReviews:
		return "reviews"
	default:
		return "recommendation"
	}
}
