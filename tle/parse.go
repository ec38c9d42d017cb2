// Package tle ingests dated two-line element files and turns them into
// validated, immutable model.TLERecord sets.
package tle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/orbitpool/model"
)

const lineLength = 69

// Checksum computes the modulo-10 TLE line checksum over the first 68
// characters: digits count as their value, '-' counts as 1, everything else
// as 0.
func Checksum(line string) int {
	sum := 0
	n := len(line)
	if n > lineLength-1 {
		n = lineLength - 1
	}
	for _, ch := range line[:n] {
		switch {
		case ch >= '0' && ch <= '9':
			sum += int(ch - '0')
		case ch == '-':
			sum++
		}
	}
	return sum % 10
}

// ParseGroup parses one name + two-line group into a TLERecord. The record's
// epoch and orbital elements are derived here, once; they are never mutated
// afterwards.
func ParseGroup(name, line1, line2 string, cn model.Constellation) (model.TLERecord, error) {
	if err := validateLines(line1, line2, cn); err != nil {
		return model.TLERecord{}, err
	}

	// Catalog number from columns 2-7 of line 1; line 2 must agree.
	satID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return model.TLERecord{}, &model.ValidationError{
			Constellation: cn, Line: 1,
			Reason: fmt.Sprintf("unreadable catalog number %q", line1[2:7]),
		}
	}
	satID2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil || satID2 != satID {
		return model.TLERecord{}, &model.ValidationError{
			SatelliteID: satID, Constellation: cn, Line: 2,
			Reason: fmt.Sprintf("catalog number %q does not match line 1", line2[2:7]),
		}
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return model.TLERecord{}, &model.ValidationError{
			SatelliteID: satID, Constellation: cn, Line: 1,
			Reason: fmt.Sprintf("bad epoch field: %v", err),
		}
	}

	elements, err := parseElements(line2)
	if err != nil {
		return model.TLERecord{}, &model.ValidationError{
			SatelliteID: satID, Constellation: cn, Line: 2,
			Reason: err.Error(),
		}
	}

	return model.TLERecord{
		SatelliteID:   satID,
		Name:          strings.TrimSpace(name),
		Constellation: cn,
		Line1:         line1,
		Line2:         line2,
		Epoch:         epoch,
		Elements:      elements,
	}, nil
}

func validateLines(line1, line2 string, cn model.Constellation) error {
	if len(line1) != lineLength {
		return &model.ValidationError{Constellation: cn, Line: 1,
			Reason: fmt.Sprintf("length %d, expected %d", len(line1), lineLength)}
	}
	if len(line2) != lineLength {
		return &model.ValidationError{Constellation: cn, Line: 2,
			Reason: fmt.Sprintf("length %d, expected %d", len(line2), lineLength)}
	}
	if !strings.HasPrefix(line1, "1 ") {
		return &model.ValidationError{Constellation: cn, Line: 1, Reason: `must start with "1 "`}
	}
	if !strings.HasPrefix(line2, "2 ") {
		return &model.ValidationError{Constellation: cn, Line: 2, Reason: `must start with "2 "`}
	}

	for i, line := range []string{line1, line2} {
		want, err := strconv.Atoi(line[lineLength-1:])
		if err != nil {
			return &model.ValidationError{Constellation: cn, Line: i + 1,
				Reason: fmt.Sprintf("checksum column %q is not a digit", line[lineLength-1:])}
		}
		if got := Checksum(line); got != want {
			return &model.ValidationError{Constellation: cn, Line: i + 1,
				Reason: fmt.Sprintf("checksum mismatch: line says %d, computed %d", want, got)}
		}
	}
	return nil
}

// parseEpoch converts the YYDDD.DDDDDDDD epoch field to an absolute UTC
// time. Two-digit years below 57 map to 20xx, the rest to 19xx, per the
// standard TLE convention.
func parseEpoch(field string) (time.Time, error) {
	if len(field) < 5 {
		return time.Time{}, fmt.Errorf("epoch field %q too short", field)
	}
	yy, err := strconv.Atoi(field[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %w", field[:2], err)
	}
	dayOfYear, err := strconv.ParseFloat(field[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %w", field[2:], err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %.8f out of range", dayOfYear)
	}

	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}

	whole := int(dayOfYear)
	frac := dayOfYear - float64(whole)

	// Day 1 is Jan 1 00:00 UTC. Rounding the fractional day to whole
	// nanoseconds keeps repeated parses of the same input bit-identical.
	base := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, whole-1)
	return base.Add(time.Duration(math.Round(frac * 86400 * 1e9))), nil
}

// parseElements extracts the classical orbital elements from line 2 using
// the fixed TLE column layout.
func parseElements(line2 string) (model.OrbitalElements, error) {
	fields := []struct {
		name     string
		lo, hi   int
		implied0 bool // eccentricity has an implied leading "0."
	}{
		{"inclination", 8, 16, false},
		{"raan", 17, 25, false},
		{"eccentricity", 26, 33, true},
		{"argument of perigee", 34, 42, false},
		{"mean anomaly", 43, 51, false},
		{"mean motion", 52, 63, false},
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		raw := strings.TrimSpace(line2[f.lo:f.hi])
		if f.implied0 {
			raw = "0." + raw
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.OrbitalElements{}, fmt.Errorf("unreadable %s %q", f.name, line2[f.lo:f.hi])
		}
		vals[i] = v
	}

	meanMotion := vals[5]
	if meanMotion <= 0 {
		return model.OrbitalElements{}, fmt.Errorf("mean motion %.8f must be positive", meanMotion)
	}

	return model.OrbitalElements{
		InclinationDeg:       vals[0],
		RAANDeg:              vals[1],
		Eccentricity:         vals[2],
		ArgPerigeeDeg:        vals[3],
		MeanAnomalyDeg:       vals[4],
		MeanMotionRevPerDay:  meanMotion,
		OrbitalPeriodMinutes: 1440 / meanMotion,
	}, nil
}
