// Package timectrl separates the two notions of time the pipeline deals
// with: the wall clock (used only for TLE freshness checks and artifact
// metadata) and the epoch-anchored sampling grid every propagation offset is
// measured against. Components depend on the Clock abstraction rather than
// time.Now so tests can pin "now".
package timectrl

import "time"

// Clock provides the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant; used in tests and for
// reproducible artifact metadata.
type FixedClock struct {
	T time.Time
}

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time { return c.T }

// SampleGrid is an evenly spaced sequence of time offsets anchored at a TLE
// epoch. All series of a constellation must share an identical grid shape
// (interval and count) for aggregation to be meaningful.
type SampleGrid struct {
	Epoch    time.Time
	Interval time.Duration
	Count    int
}

// NewSampleGrid builds a grid of count samples starting at epoch.
func NewSampleGrid(epoch time.Time, interval time.Duration, count int) SampleGrid {
	return SampleGrid{Epoch: epoch, Interval: interval, Count: count}
}

// GridForPeriod builds the grid covering exactly one orbital period: the
// sample count is the number of whole intervals in the period.
func GridForPeriod(epoch time.Time, periodMinutes float64, interval time.Duration) SampleGrid {
	periodSeconds := periodMinutes * 60
	count := int(periodSeconds / interval.Seconds())
	if count < 1 {
		count = 1
	}
	return SampleGrid{Epoch: epoch, Interval: interval, Count: count}
}

// OffsetSeconds returns the offset of sample i from the epoch, in seconds.
func (g SampleGrid) OffsetSeconds(i int) float64 {
	return float64(i) * g.Interval.Seconds()
}

// TimeAt returns the absolute timestamp of sample i. The base is always the
// TLE epoch, never the wall clock.
func (g SampleGrid) TimeAt(i int) time.Time {
	return g.Epoch.Add(time.Duration(i) * g.Interval)
}
