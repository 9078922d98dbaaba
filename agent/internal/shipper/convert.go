package shipper

import (
	"github.com/localrank/localrank/agent/internal/compute"
	"github.com/localrank/localrank/pkg/types"
)

// toSnapshot converts a compute.Result into the wire snapshot sent to
// localrank-server. A business that never scored has a nil Score and an
// empty rating.
func toSnapshot(r *compute.Result) types.ScoreSnapshot {
	snap := types.ScoreSnapshot{
		BusinessID:      r.BusinessID,
		Name:            r.Name,
		Address:         r.Address,
		TimestampUnix:   r.Timestamp.Unix(),
		Delta:           r.Delta,
		FetchSuccessPct: r.FetchSuccessPct,
		ErrorMessage:    r.ErrorMessage,
	}
	if r.Report == nil {
		snap.Recommendations = []types.Recommendation{}
		return snap
	}

	s := r.Report.Score
	snap.Score = &s
	snap.Rating = r.Report.Rating
	snap.Recommendations = append([]types.Recommendation{}, r.Report.Recommendations...)
	return snap
}
