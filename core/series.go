package core

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/timectrl"
)

// Series lengths below this fraction of the constellation's nominal
// expectation indicate the stage produced garbage (wrong mean motion or a
// truncated run) and must be rejected rather than silently accepted.
const minSeriesLengthFraction = 0.8

// GenerateSeries samples the propagator across exactly one orbital period at
// the configured interval, producing the satellite's visibility time series.
//
// The period comes from the record's own mean motion, not from a per-satellite
// constant; the constellation's nominal period is used only to sanity-check
// the resulting length. Any interior propagation failure aborts the series:
// downstream pool selection assumes full-period coverage per satellite, so a
// partial series is worse than an explicit failure.
func GenerateSeries(p *Propagator, obs config.Observer, cc config.ConstellationConfig, interval time.Duration) (model.SatelliteTimeSeries, error) {
	rec := p.Record()
	grid := timectrl.GridForPeriod(rec.Epoch, rec.Elements.OrbitalPeriodMinutes, interval)

	expected := int(cc.NominalPeriodMinutes * 60 / interval.Seconds())
	if expected > 0 && float64(grid.Count) < minSeriesLengthFraction*float64(expected) {
		return model.SatelliteTimeSeries{}, fmt.Errorf(
			"series for %s: %d samples from a %.1f min period, below %.0f%% of the %d expected for %s",
			rec, grid.Count, rec.Elements.OrbitalPeriodMinutes,
			minSeriesLengthFraction*100, expected, rec.Constellation)
	}

	series := model.SatelliteTimeSeries{
		SatelliteID:     rec.SatelliteID,
		Constellation:   rec.Constellation,
		Epoch:           rec.Epoch,
		IntervalSeconds: interval.Seconds(),
		Samples:         make([]model.VisibilitySample, 0, grid.Count),
	}

	for i := 0; i < grid.Count; i++ {
		offsetSeconds := grid.OffsetSeconds(i)
		pos, err := p.Propagate(offsetSeconds / 60)
		if err != nil {
			return model.SatelliteTimeSeries{}, err
		}
		series.Samples = append(series.Samples,
			ComputeVisibility(pos, rec.Constellation, obs, cc.ElevationThresholdDeg, offsetSeconds))
	}
	return series, nil
}
