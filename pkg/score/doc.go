// Package score is the local SEO scoring engine.
//
// score.go provides the pure Compute(name, address, raw) function that turns a
// RawSignals snapshot and the two input strings into a CompositeScore with
// seven sub-scores:
//
//	nameLength (max 30), keywordOptimization (max 30), addressCompleteness (max 40),
//	googleRanking, socialMediaPresence, localSEO, onlineReviews (max 100 each)
//
// The total is round(sum/7). The differing maxima are averaged as-is, without
// rescaling to a common range.
//
// recommend.go derives an ordered list of recommendations from a score;
// classify.go maps a total to GOOD (≥70), FAIR (40–69) or POOR (<40).
//
// calculator.go wraps a data source with a fetch timeout and collapses every
// fetch failure into a single DataFetchError.
package score
