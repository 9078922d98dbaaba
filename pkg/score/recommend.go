package score

import (
	"fmt"
	"strings"

	"github.com/localrank/localrank/pkg/types"
)

// Recommendation categories.
const (
	CategoryRanking = "Search Engine Ranking"
	CategorySocial  = "Social Media Presence"
	CategoryReviews = "Online Reviews"
)

// Rule thresholds.
const (
	rankingThreshold = 70
	minGoogleReviews = 100
	minYelpReviews   = 50
)

// Recommend derives the recommendations for a score. Rules run in a fixed
// order and each emits at most one item, so the result has 0–3 entries in
// rule order regardless of priority.
func Recommend(s types.CompositeScore) []types.Recommendation {
	out := make([]types.Recommendation, 0, 3)

	if s.Details.GoogleRanking < rankingThreshold {
		out = append(out, types.Recommendation{
			Category: CategoryRanking,
			Status:   types.StatusPoor,
			Message: fmt.Sprintf("Your business currently appears at position %d in Google search results.",
				s.SearchData.GooglePosition),
			Improvement: "Earn quality backlinks from local sites, publish content about your services, " +
				"and optimize your pages for the keywords your customers search for.",
			Priority: types.PriorityHigh,
		})
	}

	if missing := MissingPlatforms(s.SocialMedia); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, p := range missing {
			names[i] = string(p)
		}
		out = append(out, types.Recommendation{
			Category:    CategorySocial,
			Status:      types.StatusWarning,
			Message:     "No profile found on: " + strings.Join(names, ", "),
			Improvement: "Create business profiles on these platforms and keep them active to reach more local customers.",
			Priority:    types.PriorityMedium,
		})
	}

	google, yelp := s.Reviews[types.Google], s.Reviews[types.Yelp]
	if google.Count < minGoogleReviews || yelp.Count < minYelpReviews {
		out = append(out, types.Recommendation{
			Category: CategoryReviews,
			Status:   types.StatusWarning,
			Message: fmt.Sprintf("You have %d Google reviews and %d Yelp reviews.",
				google.Count, yelp.Count),
			Improvement: "Ask satisfied customers to leave a review and respond to existing reviews, " +
				"especially the negative ones.",
			Priority: types.PriorityHigh,
		})
	}

	return out
}

// MissingPlatforms returns the tracked platforms without a profile, in
// types.Platforms order. A platform absent from the map counts as missing.
func MissingPlatforms(social map[types.Platform]types.SocialProfile) []types.Platform {
	var missing []types.Platform
	for _, p := range types.Platforms {
		if !social[p].Exists {
			missing = append(missing, p)
		}
	}
	return missing
}
