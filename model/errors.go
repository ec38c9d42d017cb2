package model

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed TLE. SatelliteID may be zero when the
// catalog number itself could not be read.
type ValidationError struct {
	SatelliteID   int
	Constellation Constellation
	Line          int // 1 or 2; 0 when the group as a whole is malformed
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid TLE for %s/%d: line %d: %s",
			e.Constellation, e.SatelliteID, e.Line, e.Reason)
	}
	return fmt.Sprintf("invalid TLE for %s/%d: %s", e.Constellation, e.SatelliteID, e.Reason)
}

// MissingDataError reports that no TLE file exists for a constellation/date.
type MissingDataError struct {
	Constellation Constellation
	Date          string
	Path          string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no TLE data for %s on %s (looked for %s)",
		e.Constellation, e.Date, e.Path)
}

// PropagationError reports non-physical SGP4 output for a satellite.
type PropagationError struct {
	SatelliteID   int
	Constellation Constellation
	OffsetMinutes float64
	Reason        string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation failed for %s/%d at epoch+%.1f min: %s",
		e.Constellation, e.SatelliteID, e.OffsetMinutes, e.Reason)
}

// AlignmentError reports a time series whose sampling grid does not match its
// constellation peers during aggregation.
type AlignmentError struct {
	SatelliteID   int
	Constellation Constellation
	Reason        string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("misaligned time series for %s/%d: %s",
		e.Constellation, e.SatelliteID, e.Reason)
}

// UnderProvisioningError reports that the pool selector cannot meet the
// minimum visible-count target with the candidates available. This is a
// configuration or data problem, not a tunable outcome.
type UnderProvisioningError struct {
	Constellation Constellation
	Candidates    int
	MinVisible    int
}

func (e *UnderProvisioningError) Error() string {
	return fmt.Sprintf("under-provisioned: %s has %d candidate satellites, need at least %d simultaneously visible",
		e.Constellation, e.Candidates, e.MinVisible)
}

// StaleEpochWarning flags a TLE older than the freshness threshold. It is
// logged (never suppressed) and only surfaced as an error in strict mode.
type StaleEpochWarning struct {
	SatelliteID   int
	Constellation Constellation
	Epoch         time.Time
	Age           time.Duration
}

func (e *StaleEpochWarning) Error() string {
	return fmt.Sprintf("stale TLE for %s/%d: epoch %s is %.1f days old",
		e.Constellation, e.SatelliteID, e.Epoch.Format(time.RFC3339), e.Age.Hours()/24)
}
