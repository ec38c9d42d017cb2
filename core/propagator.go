// Package core implements the orbital-visibility pipeline stages: SGP4
// propagation, topocentric visibility, full-period time series, coverage
// aggregation, and dynamic pool selection.
package core

import (
	"context"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/timectrl"
)

// Plausibility band for SGP4 output magnitudes (km from Earth's centre).
// Anything outside is a decayed or degenerate orbit, not a usable result.
const (
	minPlausibleRadiusKm = 6200.0
	maxPlausibleRadiusKm = 50000.0
)

// Propagator propagates one satellite with SGP4. Every offset is measured
// from the TLE's own epoch; the wall clock is consulted only once, at
// construction, for the freshness check. There is no simplified-physics
// fallback: propagation either runs the real model or fails explicitly.
type Propagator struct {
	rec model.TLERecord
	sat satellite.Satellite
}

// NewPropagator initialises the SGP4 model for rec. A TLE older than
// staleAfter (relative to clock.Now()) is warn-logged and, in strict mode,
// rejected with model.StaleEpochWarning.
func NewPropagator(ctx context.Context, rec model.TLERecord, clock timectrl.Clock, staleAfter time.Duration, strict bool, log logging.Logger) (*Propagator, error) {
	age := clock.Now().Sub(rec.Epoch)
	if age < 0 {
		age = -age
	}
	if age > staleAfter {
		warn := &model.StaleEpochWarning{
			SatelliteID:   rec.SatelliteID,
			Constellation: rec.Constellation,
			Epoch:         rec.Epoch,
			Age:           age,
		}
		log.Warn(ctx, "TLE epoch is stale; SGP4 accuracy degrades with epoch age",
			logging.Int("satellite_id", rec.SatelliteID),
			logging.String("constellation", string(rec.Constellation)),
			logging.String("epoch", rec.Epoch.Format(time.RFC3339)),
			logging.String("age", age.Round(time.Hour).String()),
		)
		if strict {
			return nil, warn
		}
	}

	sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, &model.PropagationError{
			SatelliteID:   rec.SatelliteID,
			Constellation: rec.Constellation,
			Reason:        "sgp4 init failed: " + sat.ErrorStr,
		}
	}
	return &Propagator{rec: rec, sat: sat}, nil
}

// Record returns the TLE record this propagator was built from.
func (p *Propagator) Record() model.TLERecord { return p.rec }

// Propagate returns the ECI state vector at epoch + offsetMinutes. Degenerate
// output (NaN/Inf, or a radius outside the plausible band) yields
// model.PropagationError.
func (p *Propagator) Propagate(offsetMinutes float64) (model.PositionSample, error) {
	t := p.rec.Epoch.Add(time.Duration(offsetMinutes * float64(time.Minute))).UTC()

	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)

	if !finite(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z) {
		return model.PositionSample{}, &model.PropagationError{
			SatelliteID:   p.rec.SatelliteID,
			Constellation: p.rec.Constellation,
			OffsetMinutes: offsetMinutes,
			Reason:        "sgp4 produced NaN/Inf output",
		}
	}
	radius := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if radius < minPlausibleRadiusKm || radius > maxPlausibleRadiusKm {
		return model.PositionSample{}, &model.PropagationError{
			SatelliteID:   p.rec.SatelliteID,
			Constellation: p.rec.Constellation,
			OffsetMinutes: offsetMinutes,
			Reason:        fmt.Sprintf("non-physical radius %.1f km", radius),
		}
	}

	return model.PositionSample{
		SatelliteID: p.rec.SatelliteID,
		Timestamp:   t,
		PositionECI: model.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		VelocityECI: model.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}, nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
