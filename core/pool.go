package core

import (
	"context"
	"sort"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/model"
)

// Candidate pairs a satellite's TLE record with its full-period time series.
type Candidate struct {
	Record model.TLERecord
	Series model.SatelliteTimeSeries
}

// Selector chooses, for one constellation, a satellite subset whose visible
// count stays inside the configured band at every time offset of the orbital
// period. Selection uses the orbital-phase-displacement heuristic: score
// candidates, admit greedily with phase-zone diversity, backfill to the
// minimum pool size, then verify coverage and attempt bounded swap
// refinement.
//
// The phase-zone scoring is an empirical heuristic, not a proven-optimal
// algorithm; the preferred-zone set and weights are configuration.
type Selector struct {
	target config.PoolTarget
	tuning config.PhaseTuning
	log    logging.Logger
}

// NewSelector builds a selector for one constellation's target band.
func NewSelector(target config.PoolTarget, tuning config.PhaseTuning, log logging.Logger) *Selector {
	if log == nil {
		log = logging.Noop()
	}
	return &Selector{target: target, tuning: tuning, log: log}
}

type scored struct {
	Candidate
	score float64
	zone  int
}

// Select runs the selection passes. Fewer candidates than the visible-count
// floor is a configuration/data problem and yields
// model.UnderProvisioningError; an out-of-band verification result is NOT an
// error - the returned pool carries per-snapshot compliance so the caller
// can decide whether to relax targets or widen the candidate set.
func (s *Selector) Select(ctx context.Context, candidates []Candidate) (model.SatellitePool, error) {
	if len(candidates) == 0 {
		return model.SatellitePool{}, &model.UnderProvisioningError{
			MinVisible: s.target.MinVisible,
		}
	}
	cn := candidates[0].Record.Constellation
	if len(candidates) < s.target.MinVisible {
		return model.SatellitePool{}, &model.UnderProvisioningError{
			Constellation: cn,
			Candidates:    len(candidates),
			MinVisible:    s.target.MinVisible,
		}
	}

	ranked := s.rank(candidates)

	// Pass 1: phase-diverse greedy admission. Admitting at most one
	// satellite per 45° mean-anomaly zone spreads the pool around the
	// orbit, which is what smooths coverage gaps between passes.
	var selected []scored
	zoneTaken := make(map[int]bool)
	for _, c := range ranked {
		if len(selected) >= s.target.MaxPoolSize {
			break
		}
		if zoneTaken[c.zone] {
			continue
		}
		zoneTaken[c.zone] = true
		selected = append(selected, c)
	}
	diverse := len(selected)

	// Pass 2: fill to the minimum pool size by score alone. Meeting the
	// minimum takes priority over diversity once diversity is exhausted.
	if len(selected) < s.target.MinPoolSize {
		inPool := make(map[int]bool, len(selected))
		for _, c := range selected {
			inPool[c.Record.SatelliteID] = true
		}
		for _, c := range ranked {
			if len(selected) >= s.target.MinPoolSize {
				break
			}
			if inPool[c.Record.SatelliteID] {
				continue
			}
			inPool[c.Record.SatelliteID] = true
			selected = append(selected, c)
		}
	}

	s.log.Debug(ctx, "pool selection passes complete",
		logging.String("constellation", string(cn)),
		logging.Int("candidates", len(candidates)),
		logging.Int("diverse_pass", diverse),
		logging.Int("after_fill", len(selected)),
	)

	// Pass 3: verification and bounded refinement.
	snapshots, violations, err := s.evaluate(selected)
	if err != nil {
		return model.SatellitePool{}, err
	}
	if violations > 0 {
		selected, snapshots, violations, err = s.refine(ctx, ranked, selected, snapshots, violations)
		if err != nil {
			return model.SatellitePool{}, err
		}
	}

	return s.buildPool(cn, selected, snapshots, violations), nil
}

// rank computes the composite phase-optimization score for every candidate
// and orders them score-descending, breaking exact ties by lower satellite
// ID for reproducibility.
func (s *Selector) rank(candidates []Candidate) []scored {
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{
			Candidate: c,
			score:     s.score(c),
			zone:      c.Record.PhaseZone(),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].Record.SatelliteID < ranked[j].Record.SatelliteID
	})
	return ranked
}

// score weighs total visible duration, peak elevation (a link-quality
// proxy), and whether the satellite's mean-anomaly zone falls in the
// preferred set that spreads satellites evenly around the orbit.
func (s *Selector) score(c Candidate) float64 {
	periodSeconds := float64(c.Series.Len()) * c.Series.IntervalSeconds
	durationScore := 0.0
	if periodSeconds > 0 {
		durationScore = c.Series.VisibleDurationSeconds() / periodSeconds
	}

	elevScore := c.Series.MaxElevationDeg() / 90
	if elevScore < 0 {
		elevScore = 0
	} else if elevScore > 1 {
		elevScore = 1
	}

	phaseScore := 0.5
	zone := c.Record.PhaseZone()
	for _, z := range s.tuning.PreferredZones {
		if z == zone {
			phaseScore = 1.0
			break
		}
	}

	return s.tuning.DurationWeight*durationScore +
		s.tuning.ElevationWeight*elevScore +
		s.tuning.PhaseWeight*phaseScore
}

// evaluate aggregates the selected subset and counts snapshots outside the
// target band.
func (s *Selector) evaluate(selected []scored) ([]model.CoverageSnapshot, int, error) {
	series := make([]model.SatelliteTimeSeries, len(selected))
	for i, c := range selected {
		series[i] = c.Series
	}
	snapshots, err := Aggregate(series)
	if err != nil {
		return nil, 0, err
	}
	return snapshots, s.countViolations(snapshots), nil
}

func (s *Selector) countViolations(snapshots []model.CoverageSnapshot) int {
	n := 0
	for _, snap := range snapshots {
		if snap.VisibleCount < s.target.MinVisible || snap.VisibleCount > s.target.MaxVisible {
			n++
		}
	}
	return n
}

func (s *Selector) violationKinds(snapshots []model.CoverageSnapshot) (under, over int) {
	for _, snap := range snapshots {
		if snap.VisibleCount < s.target.MinVisible {
			under++
		} else if snap.VisibleCount > s.target.MaxVisible {
			over++
		}
	}
	return under, over
}

// refine is the iterative improvement loop run after a failed verification:
// a deterministic, bounded sequence of add / remove / swap moves, each
// accepted only when it strictly reduces the number of out-of-band
// snapshots. It stops at the iteration budget or at the first iteration
// where no move helps.
func (s *Selector) refine(ctx context.Context, ranked, selected []scored, snapshots []model.CoverageSnapshot, violations int) ([]scored, []model.CoverageSnapshot, int, error) {
	for iter := 0; iter < s.tuning.RefinementIterations && violations > 0; iter++ {
		under, over := s.violationKinds(snapshots)

		next, nextSnaps, nextViol, err := s.bestMove(ranked, selected, violations, under, over)
		if err != nil {
			return nil, nil, 0, err
		}
		if next == nil {
			break
		}
		selected, snapshots, violations = next, nextSnaps, nextViol

		s.log.Debug(ctx, "refinement accepted a move",
			logging.Int("iteration", iter),
			logging.Int("pool_size", len(selected)),
			logging.Int("violations", violations),
		)
	}
	return selected, snapshots, violations, nil
}

// bestMove tries, in deterministic order: adding the best unselected
// candidate (when undershooting and room remains), removing the
// lowest-scoring member (when overshooting and above the floor), then
// score-ordered swaps. The first move that strictly reduces violations wins.
func (s *Selector) bestMove(ranked, selected []scored, violations, under, over int) ([]scored, []model.CoverageSnapshot, int, error) {
	inPool := make(map[int]bool, len(selected))
	for _, c := range selected {
		inPool[c.Record.SatelliteID] = true
	}
	var outside []scored
	for _, c := range ranked {
		if !inPool[c.Record.SatelliteID] {
			outside = append(outside, c)
		}
	}

	if under > 0 && len(selected) < s.target.MaxPoolSize {
		for _, cand := range outside {
			trial := append(append([]scored(nil), selected...), cand)
			snaps, viol, err := s.evaluate(trial)
			if err != nil {
				return nil, nil, 0, err
			}
			if viol < violations {
				return trial, snaps, viol, nil
			}
		}
	}

	if over > 0 && len(selected) > s.target.MinPoolSize {
		// Try dropping members lowest-score first.
		order := make([]int, len(selected))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			if selected[order[a]].score != selected[order[b]].score {
				return selected[order[a]].score < selected[order[b]].score
			}
			return selected[order[a]].Record.SatelliteID > selected[order[b]].Record.SatelliteID
		})
		for _, idx := range order {
			trial := make([]scored, 0, len(selected)-1)
			trial = append(trial, selected[:idx]...)
			trial = append(trial, selected[idx+1:]...)
			snaps, viol, err := s.evaluate(trial)
			if err != nil {
				return nil, nil, 0, err
			}
			if viol < violations {
				return trial, snaps, viol, nil
			}
		}
	}

	for i := len(selected) - 1; i >= 0; i-- {
		for _, cand := range outside {
			trial := append([]scored(nil), selected...)
			trial[i] = cand
			snaps, viol, err := s.evaluate(trial)
			if err != nil {
				return nil, nil, 0, err
			}
			if viol < violations {
				return trial, snaps, viol, nil
			}
		}
	}

	return nil, nil, 0, nil
}

// buildPool assembles the immutable result artifact, including the composite
// optimization score: coverage compliance, phase (temporal) distribution,
// and the mean member score as a signal-quality proxy.
func (s *Selector) buildPool(cn model.Constellation, selected []scored, snapshots []model.CoverageSnapshot, violations int) model.SatellitePool {
	ids := make([]int, len(selected))
	zones := make(map[int]bool)
	var scoreSum float64
	for i, c := range selected {
		ids[i] = c.Record.SatelliteID
		zones[c.zone] = true
		scoreSum += c.score
	}
	sort.Ints(ids)

	compliance := make([]bool, len(snapshots))
	for i, snap := range snapshots {
		compliance[i] = snap.VisibleCount >= s.target.MinVisible && snap.VisibleCount <= s.target.MaxVisible
	}

	complianceRatio := 0.0
	if len(snapshots) > 0 {
		complianceRatio = float64(len(snapshots)-violations) / float64(len(snapshots))
	}
	zoneCoverage := float64(len(zones)) / 8
	meanScore := 0.0
	if len(selected) > 0 {
		meanScore = scoreSum / float64(len(selected))
	}

	return model.SatellitePool{
		Constellation:     cn,
		SatelliteIDs:      ids,
		Snapshots:         snapshots,
		Compliance:        compliance,
		Compliant:         violations == 0,
		ViolationCount:    violations,
		OptimizationScore: 0.5*complianceRatio + 0.25*zoneCoverage + 0.25*meanScore,
	}
}
