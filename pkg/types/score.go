package types

// ScoreBreakdown holds the seven sub-scores that make up a CompositeScore.
// nameLength and keywordOptimization max out at 30, addressCompleteness at 40,
// the rest at 100.
type ScoreBreakdown struct {
	NameLength          float64 `json:"nameLength"`
	AddressCompleteness float64 `json:"addressCompleteness"`
	KeywordOptimization float64 `json:"keywordOptimization"`
	GoogleRanking       float64 `json:"googleRanking"`
	SocialMediaPresence float64 `json:"socialMediaPresence"`
	LocalSEO            float64 `json:"localSEO"`
	OnlineReviews       float64 `json:"onlineReviews"`
}

// Sum returns the sum of all seven sub-scores.
func (b ScoreBreakdown) Sum() float64 {
	return b.NameLength + b.AddressCompleteness + b.KeywordOptimization +
		b.GoogleRanking + b.SocialMediaPresence + b.LocalSEO + b.OnlineReviews
}

// CompositeScore is the full result of one scoring run.
type CompositeScore struct {
	// Total is the rounded unweighted mean of the seven sub-scores (0–100).
	Total       int                          `json:"total"`
	Details     ScoreBreakdown               `json:"details"`
	SearchData  SearchData                   `json:"searchData"`
	SocialMedia map[Platform]SocialProfile   `json:"socialMedia"`
	Reviews     map[ReviewSource]ReviewStats `json:"reviews"`
}

// Status is the severity of a recommendation.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusPoor    Status = "poor"
)

// Priority orders recommendations for the reader; it does not affect the
// order in which they are emitted.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one actionable finding derived from a CompositeScore.
type Recommendation struct {
	Category    string   `json:"category"`
	Status      Status   `json:"status"`
	Message     string   `json:"message"`
	Improvement string   `json:"improvement"`
	Priority    Priority `json:"priority"`
}

// Rating is the overall classification of a total score.
type Rating struct {
	Label      string `json:"label"`      // GOOD | FAIR | POOR
	StyleClass string `json:"styleClass"` // CSS class used by the presentation layer
}

// ScoreSnapshot is the per-business record shipped from the agent to the
// server and returned by the REST API.
type ScoreSnapshot struct {
	BusinessID    string `json:"businessId"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	TimestampUnix int64  `json:"timestampUnix"`

	// Score is nil until the first successful calculation for the business.
	Score           *CompositeScore  `json:"score,omitempty"`
	Rating          Rating           `json:"rating"`
	Recommendations []Recommendation `json:"recommendations"`

	// Delta is the change in Total since the previous successful calculation.
	Delta float64 `json:"delta"`

	// FetchSuccessPct is the share of recent data-source fetches that succeeded.
	FetchSuccessPct float64 `json:"fetchSuccessPct"`

	// ErrorMessage is non-empty when the latest fetch failed. Score then holds
	// the last successful result, if any.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Total returns the snapshot's total score, or 0 when no score is available.
func (s *ScoreSnapshot) Total() int {
	if s == nil || s.Score == nil {
		return 0
	}
	return s.Score.Total
}
