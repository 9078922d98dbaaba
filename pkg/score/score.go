package score

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/localrank/localrank/pkg/types"
)

// Sub-score maxima.
const (
	maxNameLength          = 30.0
	maxKeywordOptimization = 30.0
	maxAddressCompleteness = 40.0
	maxPercent             = 100.0
)

// Name length sweet spot, in characters. Names inside [nameSweetMin, nameSweetMax]
// receive the full nameLength score.
const (
	nameSweetMin = 15
	nameSweetMax = 30

	// nameTaperBase is the numerator of the taper applied to names longer than
	// nameSweetMax: round(nameTaperBase/L × 30).
	nameTaperBase = 40.0
)

// Points awarded per keyword token and per address segment.
const (
	pointsPerKeyword = 10
	pointsPerSegment = 10
)

// subScoreCount is the divisor for the composite total.
const subScoreCount = 7

// Compute calculates the composite SEO score for a business.
//
// Compute is pure: identical inputs always produce an identical result, and the
// returned CompositeScore holds its own copies of the signal maps. Empty name or
// address strings yield zero for the corresponding sub-scores rather than an
// error; callers that need to reject them use ValidateInput first.
//
// A nil raw is treated as an empty snapshot.
func Compute(name, address string, raw *types.RawSignals) types.CompositeScore {
	if raw == nil {
		raw = &types.RawSignals{}
	}
	signals := raw.Clone()

	details := types.ScoreBreakdown{
		NameLength:          nameLengthScore(name),
		AddressCompleteness: addressScore(address),
		KeywordOptimization: keywordScore(name),
		GoogleRanking:       googleRankingScore(signals.SearchData.GooglePosition),
		SocialMediaPresence: socialPresenceScore(signals),
		LocalSEO:            localSEOScore(signals),
		OnlineReviews:       onlineReviewsScore(signals),
	}

	return types.CompositeScore{
		Total:       int(math.Round(details.Sum() / subScoreCount)),
		Details:     details,
		SearchData:  signals.SearchData,
		SocialMedia: signals.SocialMedia,
		Reviews:     signals.Reviews,
	}
}

// nameLengthScore rewards names of 15–30 characters.
//
// Shorter names ramp linearly toward the sweet spot. Longer names taper as
// 40/L × 30, which exceeds 30 for lengths 31–39 and never reaches zero.
func nameLengthScore(name string) float64 {
	l := utf8.RuneCountInString(name)
	switch {
	case l >= nameSweetMin && l <= nameSweetMax:
		return maxNameLength
	case l < nameSweetMin:
		return math.Round(float64(l) / nameSweetMin * maxNameLength)
	default:
		return math.Round(nameTaperBase / float64(l) * maxNameLength)
	}
}

// keywordScore awards 10 points per whitespace-separated token, up to 30.
func keywordScore(name string) float64 {
	tokens := len(strings.Fields(strings.ToLower(name)))
	return math.Min(float64(tokens*pointsPerKeyword), maxKeywordOptimization)
}

// addressScore awards 10 points per comma-separated segment, up to 40.
// Any non-empty address has at least one segment.
func addressScore(address string) float64 {
	if address == "" {
		return 0
	}
	segments := len(strings.Split(address, ","))
	return math.Min(float64(segments*pointsPerSegment), maxAddressCompleteness)
}

// googleRankingScore is 100 at position 0 and loses a point per position.
func googleRankingScore(position int) float64 {
	return clamp(maxPercent-float64(position), 0, maxPercent)
}

// socialPresenceScore is the share of tracked platforms with a profile.
func socialPresenceScore(raw *types.RawSignals) float64 {
	var present int
	for _, p := range types.Platforms {
		if raw.Profile(p).Exists {
			present++
		}
	}
	return float64(present) / float64(len(types.Platforms)) * maxPercent
}

// localSEOScore combines the average rating and the review volume:
// avgRating×10 + totalReviews/10, capped at 100.
func localSEOScore(raw *types.RawSignals) float64 {
	g, y := raw.Review(types.Google), raw.Review(types.Yelp)
	avgRating := (g.Rating + y.Rating) / 2
	totalReviews := float64(g.Count + y.Count)
	return math.Min(maxPercent, avgRating*10+totalReviews/10)
}

// onlineReviewsScore gives each review site half the weight, capped at 100.
func onlineReviewsScore(raw *types.RawSignals) float64 {
	g, y := raw.Review(types.Google), raw.Review(types.Yelp)
	return math.Min(maxPercent, g.Rating/5*50+y.Rating/5*50)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
