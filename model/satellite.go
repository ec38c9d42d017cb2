package model

import (
	"fmt"
	"time"
)

// Constellation identifies which constellation a satellite belongs to.
type Constellation string

const (
	ConstellationStarlink Constellation = "starlink"
	ConstellationOneWeb   Constellation = "oneweb"
)

// Valid reports whether c is one of the known constellations.
func (c Constellation) Valid() bool {
	switch c {
	case ConstellationStarlink, ConstellationOneWeb:
		return true
	}
	return false
}

// OrbitalElements are the classical elements extracted from a TLE's second
// line. They are derived once at parse time and never mutated afterwards.
type OrbitalElements struct {
	InclinationDeg       float64
	RAANDeg              float64
	Eccentricity         float64
	ArgPerigeeDeg        float64
	MeanAnomalyDeg       float64
	MeanMotionRevPerDay  float64
	OrbitalPeriodMinutes float64 // 1440 / MeanMotionRevPerDay
}

// TLERecord is a parsed two-line element set for a single satellite.
// Records are immutable once parsed; ingesting a newer dated file produces an
// entirely new record set rather than mutating existing records.
type TLERecord struct {
	SatelliteID   int // NORAD catalog number
	Name          string
	Constellation Constellation
	Line1         string
	Line2         string
	Epoch         time.Time // absolute UTC, derived from the TLE epoch fields
	Elements      OrbitalElements
}

// PhaseZone returns the 45°-wide mean-anomaly bucket (0..7) this satellite's
// orbital phase falls into.
func (r TLERecord) PhaseZone() int {
	zone := int(r.Elements.MeanAnomalyDeg/45.0) % 8
	if zone < 0 {
		zone += 8
	}
	return zone
}

// String identifies the record for logs and error messages.
func (r TLERecord) String() string {
	return fmt.Sprintf("%s/%d (%s)", r.Constellation, r.SatelliteID, r.Name)
}

// PositionSample is an SGP4 state vector at a given instant. The timestamp is
// always the TLE epoch plus an offset; wall-clock time is never a propagation
// base.
type PositionSample struct {
	SatelliteID int
	Timestamp   time.Time
	PositionECI Vec3 // km
	VelocityECI Vec3 // km/s
}

// Vec3 is a cartesian vector; units depend on context (km or km/s).
type Vec3 struct {
	X, Y, Z float64
}
