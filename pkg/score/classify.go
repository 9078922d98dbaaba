package score

import "github.com/localrank/localrank/pkg/types"

// Rating labels returned by Classify.
const (
	LabelGood = "GOOD"
	LabelFair = "FAIR"
	LabelPoor = "POOR"
)

// Thresholds that map a total to a rating. Each band includes its lower bound.
const (
	ThresholdGood = 70
	ThresholdFair = 40
)

// Classify maps a total score to its rating.
func Classify(total int) types.Rating {
	switch {
	case total >= ThresholdGood:
		return types.Rating{Label: LabelGood, StyleClass: "score-good"}
	case total >= ThresholdFair:
		return types.Rating{Label: LabelFair, StyleClass: "score-fair"}
	default:
		return types.Rating{Label: LabelPoor, StyleClass: "score-poor"}
	}
}
