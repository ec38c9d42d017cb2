package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/orbitpool/model"
)

// Aggregate merges per-satellite time series of one constellation into the
// per-offset visible-count sequence. All input series must share an
// identical sampling grid (interval and length); a mismatch means the
// per-snapshot comparison would be meaningless and yields
// model.AlignmentError.
//
// Deterministic and cache-free: the input is small (hundreds of satellites
// by hundreds of samples), so each pipeline run recomputes from scratch.
func Aggregate(series []model.SatelliteTimeSeries) ([]model.CoverageSnapshot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("aggregate: no time series")
	}

	ref := series[0]
	for _, s := range series[1:] {
		if s.Constellation != ref.Constellation {
			return nil, &model.AlignmentError{
				SatelliteID:   s.SatelliteID,
				Constellation: s.Constellation,
				Reason:        fmt.Sprintf("constellation %s mixed into a %s aggregation", s.Constellation, ref.Constellation),
			}
		}
		if s.IntervalSeconds != ref.IntervalSeconds {
			return nil, &model.AlignmentError{
				SatelliteID:   s.SatelliteID,
				Constellation: s.Constellation,
				Reason:        fmt.Sprintf("interval %.0fs differs from peers' %.0fs", s.IntervalSeconds, ref.IntervalSeconds),
			}
		}
		if s.Len() != ref.Len() {
			return nil, &model.AlignmentError{
				SatelliteID:   s.SatelliteID,
				Constellation: s.Constellation,
				Reason:        fmt.Sprintf("%d samples, peers have %d", s.Len(), ref.Len()),
			}
		}
	}

	snapshots := make([]model.CoverageSnapshot, ref.Len())
	for i := range snapshots {
		var ids []int
		for _, s := range series {
			if s.Samples[i].IsVisible {
				ids = append(ids, s.SatelliteID)
			}
		}
		sort.Ints(ids)
		snapshots[i] = model.CoverageSnapshot{
			Constellation:       ref.Constellation,
			TimeOffsetSeconds:   ref.Samples[i].TimeOffsetSeconds,
			VisibleSatelliteIDs: ids,
			VisibleCount:        len(ids),
		}
	}
	return snapshots, nil
}
