package alerts

import (
	"strconv"
	"strings"

	"github.com/localrank/localrank/pkg/types"
)

// evalCondition evaluates a rule condition string against a ScoreSnapshot.
//
// Supported expressions (field operator value):
//
//	total < 40
//	google_ranking < 70
//	social_media_presence <= 25
//	google_position > 20
//	delta <= -10
//	fetch_success_pct < 80
//	recommendations >= 3
//	rating == POOR
//
// Sub-score fields are name_length, address_completeness, keyword_optimization,
// google_ranking, social_media_presence, local_seo and online_reviews.
//
// Returns (fires bool, triggering value float64). Score fields never fire for
// a business that has not scored yet. Returns (false, 0) if the expression
// cannot be parsed or the field is unknown.
func evalCondition(cond string, snap *types.ScoreSnapshot) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "rating" {
		if snap.Score == nil {
			return false, 0
		}
		switch op {
		case "==":
			return strings.EqualFold(snap.Rating.Label, rhs), float64(snap.Score.Total)
		case "!=":
			return !strings.EqualFold(snap.Rating.Label, rhs), float64(snap.Score.Total)
		}
		return false, 0
	}

	v, ok := numericField(field, snap)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the snapshot. ok is false
// for unknown fields and for score fields of a business with no score.
func numericField(field string, snap *types.ScoreSnapshot) (float64, bool) {
	switch field {
	case "delta":
		return snap.Delta, true
	case "fetch_success_pct":
		return snap.FetchSuccessPct, true
	}

	s := snap.Score
	if s == nil {
		return 0, false
	}
	switch field {
	case "total":
		return float64(s.Total), true
	case "name_length":
		return s.Details.NameLength, true
	case "address_completeness":
		return s.Details.AddressCompleteness, true
	case "keyword_optimization":
		return s.Details.KeywordOptimization, true
	case "google_ranking":
		return s.Details.GoogleRanking, true
	case "social_media_presence":
		return s.Details.SocialMediaPresence, true
	case "local_seo":
		return s.Details.LocalSEO, true
	case "online_reviews":
		return s.Details.OnlineReviews, true
	case "google_position":
		return float64(s.SearchData.GooglePosition), true
	case "recommendations":
		return float64(len(snap.Recommendations)), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
