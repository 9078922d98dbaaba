package types

// Platform names a tracked social media platform.
type Platform string

// Tracked social platforms.
const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
)

// Platforms is the fixed set of tracked platforms, in reporting order.
var Platforms = []Platform{Facebook, Instagram, Twitter, LinkedIn}

// ReviewSource names a review site.
type ReviewSource string

// Tracked review sources.
const (
	Google ReviewSource = "google"
	Yelp   ReviewSource = "yelp"
)

// ReviewSources is the fixed set of tracked review sources.
var ReviewSources = []ReviewSource{Google, Yelp}

// SearchData holds the search engine signals for one business.
type SearchData struct {
	// GooglePosition is the business's position in Google results. 0 is the top.
	GooglePosition int `json:"googlePosition"`

	// MonthlySearches is the estimated monthly search volume for the business.
	MonthlySearches int `json:"monthlySearches"`

	// CompetitorPositions lists the positions of nearby competitors, in the
	// order the data source reported them.
	CompetitorPositions []int `json:"competitorPositions"`
}

// SocialProfile describes the business's presence on one platform.
type SocialProfile struct {
	Exists    bool `json:"exists"`
	Followers int  `json:"followers,omitempty"`
}

// ReviewStats is the aggregate rating on one review site.
type ReviewStats struct {
	// Rating is the average star rating in [0, 5].
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}

// RawSignals is one snapshot of unprocessed metrics returned by a data source.
// A RawSignals value is owned by the call that produced it and must not be
// modified after it has been handed to the scoring engine.
type RawSignals struct {
	SearchData  SearchData                   `json:"searchData"`
	SocialMedia map[Platform]SocialProfile   `json:"socialMedia"`
	Reviews     map[ReviewSource]ReviewStats `json:"reviews"`
}

// Review returns the stats for src, or the zero value when absent.
func (r *RawSignals) Review(src ReviewSource) ReviewStats {
	if r == nil {
		return ReviewStats{}
	}
	return r.Reviews[src]
}

// Profile returns the profile for p, or the zero value (Exists == false) when absent.
func (r *RawSignals) Profile(p Platform) SocialProfile {
	if r == nil {
		return SocialProfile{}
	}
	return r.SocialMedia[p]
}

// Clone returns a deep copy of r.
func (r *RawSignals) Clone() *RawSignals {
	if r == nil {
		return nil
	}
	out := &RawSignals{
		SearchData: SearchData{
			GooglePosition:  r.SearchData.GooglePosition,
			MonthlySearches: r.SearchData.MonthlySearches,
		},
		SocialMedia: make(map[Platform]SocialProfile, len(r.SocialMedia)),
		Reviews:     make(map[ReviewSource]ReviewStats, len(r.Reviews)),
	}
	if r.SearchData.CompetitorPositions != nil {
		out.SearchData.CompetitorPositions = append([]int(nil), r.SearchData.CompetitorPositions...)
	}
	for k, v := range r.SocialMedia {
		out.SocialMedia[k] = v
	}
	for k, v := range r.Reviews {
		out.Reviews[k] = v
	}
	return out
}
