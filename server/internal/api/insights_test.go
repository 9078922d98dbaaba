package api

import (
	"testing"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/types"
)

func TestComputeInsights(t *testing.T) {
	tests := []struct {
		name     string
		snap     *types.ScoreSnapshot
		wantKeys []string
	}{
		{
			name:     "never scored",
			snap:     &types.ScoreSnapshot{ErrorMessage: score.UserMessage},
			wantKeys: []string{"fetch_failed"},
		},
		{
			name: "failed with previous score",
			snap: &types.ScoreSnapshot{
				ErrorMessage:    score.UserMessage,
				Score:           &types.CompositeScore{Total: 80},
				FetchSuccessPct: 95,
			},
			wantKeys: []string{"fetch_failed", "fetch_reliability"},
		},
		{
			name: "recommendations ordered by severity",
			snap: &types.ScoreSnapshot{
				Score:           &types.CompositeScore{Total: 30},
				FetchSuccessPct: 100,
				Recommendations: []types.Recommendation{
					{Category: score.CategorySocial, Status: types.StatusWarning},
					{Category: score.CategoryReviews, Status: types.StatusPoor},
				},
			},
			wantKeys: []string{"reviews", "social"},
		},
		{
			name:     "score drop",
			snap:     &types.ScoreSnapshot{Score: &types.CompositeScore{Total: 50}, Delta: -8, FetchSuccessPct: 100},
			wantKeys: []string{"score_drop"},
		},
		{
			name:     "small change is all clear",
			snap:     &types.ScoreSnapshot{Score: &types.CompositeScore{Total: 75}, Delta: 2, FetchSuccessPct: 100},
			wantKeys: []string{"healthy"},
		},
		{
			name:     "low reliability is a warning ahead of a gain",
			snap:     &types.ScoreSnapshot{Score: &types.CompositeScore{Total: 75}, Delta: 6, FetchSuccessPct: 50},
			wantKeys: []string{"fetch_reliability", "score_gain"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := computeInsights(tc.snap)
			if len(got) != len(tc.wantKeys) {
				t.Fatalf("got %d insights %+v, want keys %v", len(got), got, tc.wantKeys)
			}
			for i, k := range tc.wantKeys {
				if got[i].Key != k {
					t.Errorf("insight[%d].Key = %q, want %q", i, got[i].Key, k)
				}
			}
		})
	}
}

func TestLevelForStatus(t *testing.T) {
	cases := map[types.Status]string{
		types.StatusPoor:    LevelCritical,
		types.StatusWarning: LevelWarning,
		types.StatusGood:    LevelOK,
		"other":             LevelInfo,
	}
	for in, want := range cases {
		if got := levelForStatus(in); got != want {
			t.Errorf("levelForStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
