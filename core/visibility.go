package core

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/model"
)

// ComputeVisibility converts an ECI state vector into observer-relative
// elevation, azimuth, and slant range, and classifies visibility against the
// constellation's threshold (inclusive at the boundary).
//
// The chain is ECI -> ECEF (Earth rotation at the sample timestamp, which is
// why the epoch-derived timestamp matters) -> local east/north/up at the
// observer. Pure function of its inputs.
func ComputeVisibility(pos model.PositionSample, cn model.Constellation, obs config.Observer, thresholdDeg, offsetSeconds float64) model.VisibilitySample {
	t := pos.Timestamp.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	ecef := satellite.ECIToECEF(satellite.Vector3{X: pos.PositionECI.X, Y: pos.PositionECI.Y, Z: pos.PositionECI.Z}, gmst)

	satECEF := model.Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
	obsECEF := geodeticToECEF(obs.LatitudeDeg, obs.LongitudeDeg, obs.AltitudeM)

	elevation, azimuth, rangeKm := lookAngles(satECEF, obsECEF, obs.LatitudeDeg, obs.LongitudeDeg)

	return model.VisibilitySample{
		SatelliteID:       pos.SatelliteID,
		Constellation:     cn,
		TimeOffsetSeconds: offsetSeconds,
		ElevationDeg:      elevation,
		AzimuthDeg:        azimuth,
		RangeKm:           rangeKm,
		IsVisible:         IsVisible(elevation, thresholdDeg),
	}
}

// IsVisible applies the constellation elevation threshold. The boundary is
// inclusive: a satellite exactly at the threshold counts as visible.
func IsVisible(elevationDeg, thresholdDeg float64) bool {
	return elevationDeg >= thresholdDeg
}

// lookAngles computes elevation/azimuth (degrees) and slant range (km) of a
// satellite ECEF position as seen from the observer ECEF position.
func lookAngles(satECEF, obsECEF model.Vec3, latDeg, lonDeg float64) (elevationDeg, azimuthDeg, rangeKm float64) {
	d := sub(satECEF, obsECEF)
	rangeKm = norm(d)
	if rangeKm == 0 {
		return 90, 0, 0
	}

	e, n, u := ecefToENU(d, latDeg, lonDeg)

	elevationDeg = math.Asin(u/rangeKm) * 180 / math.Pi
	azimuthDeg = math.Atan2(e, n) * 180 / math.Pi
	if azimuthDeg < 0 {
		azimuthDeg += 360
	}
	return elevationDeg, azimuthDeg, rangeKm
}
