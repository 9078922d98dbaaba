package signals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/localrank/localrank/pkg/types"
)

// Gauges read from an exporter endpoint. Competitor positions carry a rank
// label, social gauges a platform label and review gauges a source label.
const (
	metricGooglePosition     = "localrank_google_position"
	metricMonthlySearches    = "localrank_monthly_searches"
	metricCompetitorPosition = "localrank_competitor_position"
	metricProfileExists      = "localrank_social_profile_exists"
	metricFollowers          = "localrank_social_followers"
	metricReviewRating       = "localrank_review_rating"
	metricReviewCount        = "localrank_review_count"
)

// ErrMissingPosition is returned when the exposition lacks the google position gauge.
var ErrMissingPosition = errors.New("signals: exporter did not report " + metricGooglePosition)

// exporterSource reads signals from a Prometheus text exposition, for
// providers that already publish their data as metrics.
type exporterSource struct {
	endpoint string
	client   *http.Client
}

func (s *exporterSource) Fetch(ctx context.Context, name, address string) (*types.RawSignals, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("signals: parse exporter endpoint: %w", err)
	}
	q := u.Query()
	q.Set("name", name)
	q.Set("address", address)
	u.RawQuery = q.Encode()

	mfs, err := fetchMetrics(ctx, s.client, u.String())
	if err != nil {
		return nil, fmt.Errorf("signals: exporter fetch: %w", err)
	}
	return signalsFromMetrics(mfs)
}

// signalsFromMetrics maps the localrank_* gauges onto RawSignals.
func signalsFromMetrics(mfs map[string]*dto.MetricFamily) (*types.RawSignals, error) {
	pos := mfs[metricGooglePosition]
	if pos == nil || len(pos.GetMetric()) == 0 {
		return nil, ErrMissingPosition
	}

	raw := &types.RawSignals{
		SearchData: types.SearchData{
			GooglePosition:  int(metricValue(pos.GetMetric()[0])),
			MonthlySearches: int(firstValue(mfs[metricMonthlySearches])),
		},
		SocialMedia: make(map[types.Platform]types.SocialProfile, len(types.Platforms)),
		Reviews:     make(map[types.ReviewSource]types.ReviewStats, len(types.ReviewSources)),
	}

	type ranked struct {
		rank, pos int
	}
	var comps []ranked
	for _, m := range mfs[metricCompetitorPosition].GetMetric() {
		r, _ := strconv.Atoi(label(m, "rank"))
		comps = append(comps, ranked{rank: r, pos: int(metricValue(m))})
	}
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].rank < comps[j].rank })
	raw.SearchData.CompetitorPositions = make([]int, len(comps))
	for i, c := range comps {
		raw.SearchData.CompetitorPositions[i] = c.pos
	}

	for _, m := range mfs[metricProfileExists].GetMetric() {
		p := types.Platform(label(m, "platform"))
		prof := raw.SocialMedia[p]
		prof.Exists = metricValue(m) > 0
		raw.SocialMedia[p] = prof
	}
	for _, m := range mfs[metricFollowers].GetMetric() {
		p := types.Platform(label(m, "platform"))
		prof := raw.SocialMedia[p]
		prof.Followers = int(metricValue(m))
		raw.SocialMedia[p] = prof
	}

	for _, m := range mfs[metricReviewRating].GetMetric() {
		src := types.ReviewSource(label(m, "source"))
		st := raw.Reviews[src]
		st.Rating = metricValue(m)
		raw.Reviews[src] = st
	}
	for _, m := range mfs[metricReviewCount].GetMetric() {
		src := types.ReviewSource(label(m, "source"))
		st := raw.Reviews[src]
		st.Count = int(metricValue(m))
		raw.Reviews[src] = st
	}
	return raw, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// Any parse error fails the whole body; partial families are never returned.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// metricValue returns the value of a counter, gauge, or untyped sample.
func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	}
	return 0
}

// firstValue returns the value of the first sample in mf, or 0 if absent.
func firstValue(mf *dto.MetricFamily) float64 {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	return metricValue(mf.GetMetric()[0])
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
