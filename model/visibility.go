package model

import "time"

// VisibilitySample is one observer-relative measurement of a satellite.
type VisibilitySample struct {
	SatelliteID       int
	Constellation     Constellation
	TimeOffsetSeconds float64 // seconds since the satellite's TLE epoch
	ElevationDeg      float64
	AzimuthDeg        float64
	RangeKm           float64
	IsVisible         bool // elevation >= the constellation threshold (inclusive)
}

// SatelliteTimeSeries is an ordered sequence of visibility samples spanning
// exactly one orbital period at a fixed sampling interval.
type SatelliteTimeSeries struct {
	SatelliteID     int
	Constellation   Constellation
	Epoch           time.Time // absolute base time all offsets are relative to
	IntervalSeconds float64
	Samples         []VisibilitySample
}

// Len returns the number of samples in the series.
func (s SatelliteTimeSeries) Len() int { return len(s.Samples) }

// VisibleDurationSeconds is the accumulated time the satellite spends above
// the visibility threshold across the whole period.
func (s SatelliteTimeSeries) VisibleDurationSeconds() float64 {
	var d float64
	for _, smp := range s.Samples {
		if smp.IsVisible {
			d += s.IntervalSeconds
		}
	}
	return d
}

// MaxElevationDeg is the highest elevation reached during the period.
// Returns -90 for an empty series.
func (s SatelliteTimeSeries) MaxElevationDeg() float64 {
	max := -90.0
	for _, smp := range s.Samples {
		if smp.ElevationDeg > max {
			max = smp.ElevationDeg
		}
	}
	return max
}

// CoverageSnapshot is the aggregated visibility state of one constellation at
// a single time offset. Snapshots are derived and read-only.
type CoverageSnapshot struct {
	Constellation       Constellation
	TimeOffsetSeconds   float64
	VisibleSatelliteIDs []int // ascending
	VisibleCount        int
}

// SatellitePool is the result artifact of dynamic pool selection: the
// selected satellite subset for one constellation together with its coverage
// compliance over the full orbital period. Pools are created once per
// pipeline run and never mutated afterwards.
type SatellitePool struct {
	Constellation     Constellation
	SatelliteIDs      []int // ascending
	Snapshots         []CoverageSnapshot
	Compliance        []bool // per snapshot: MinVisible <= count <= MaxVisible
	Compliant         bool   // true when every snapshot is in band
	ViolationCount    int
	OptimizationScore float64
}
