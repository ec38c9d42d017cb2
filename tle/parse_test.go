package tle

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/tle/tletest"
)

const (
	issLine1 = "1 25544U 98067A   25025.00048859  .00033214  00000+0  57704-3 0  9996"
	issLine2 = "2 25544  51.6377 296.2827 0003104 141.8447 313.9175 15.50506992492954"
)

func TestChecksum(t *testing.T) {
	if got := Checksum(issLine1); got != 6 {
		t.Fatalf("line 1 checksum = %d, want 6", got)
	}
	if got := Checksum(issLine2); got != 4 {
		t.Fatalf("line 2 checksum = %d, want 4", got)
	}
}

func TestParseGroup(t *testing.T) {
	rec, err := ParseGroup("ISS (ZARYA)", issLine1, issLine2, model.ConstellationStarlink)
	if err != nil {
		t.Fatalf("ParseGroup: %v", err)
	}

	if rec.SatelliteID != 25544 {
		t.Errorf("SatelliteID = %d, want 25544", rec.SatelliteID)
	}
	if rec.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q", rec.Name)
	}
	if got := rec.Epoch.UTC().Format("2006-01-02"); got != "2025-01-25" {
		t.Errorf("Epoch date = %s, want 2025-01-25", got)
	}
	midnight := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	if sec := rec.Epoch.Sub(midnight).Seconds(); math.Abs(sec-42.214) > 0.01 {
		t.Errorf("Epoch offset = %.3fs past midnight, want ~42.214s", sec)
	}

	el := rec.Elements
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"inclination", el.InclinationDeg, 51.6377},
		{"raan", el.RAANDeg, 296.2827},
		{"eccentricity", el.Eccentricity, 0.0003104},
		{"argument of perigee", el.ArgPerigeeDeg, 141.8447},
		{"mean anomaly", el.MeanAnomalyDeg, 313.9175},
		{"mean motion", el.MeanMotionRevPerDay, 15.50506992},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if math.Abs(el.OrbitalPeriodMinutes-1440/15.50506992) > 1e-9 {
		t.Errorf("period = %v minutes", el.OrbitalPeriodMinutes)
	}
	if zone := rec.PhaseZone(); zone != 6 {
		t.Errorf("PhaseZone() = %d, want 6", zone)
	}
}

func TestParseGroupDeterministic(t *testing.T) {
	a, err := ParseGroup("ISS", issLine1, issLine2, model.ConstellationStarlink)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseGroup("ISS", issLine1, issLine2, model.ConstellationStarlink)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Epoch.Equal(b.Epoch) {
		t.Errorf("epochs differ across parses: %v vs %v", a.Epoch, b.Epoch)
	}
	if a.Elements != b.Elements {
		t.Errorf("elements differ across parses")
	}
}

func TestParseGroupSyntheticRoundTrip(t *testing.T) {
	want := tletest.Params{
		CatalogNumber:       44713,
		Epoch:               time.Date(2025, 1, 25, 6, 0, 0, 0, time.UTC),
		InclinationDeg:      53.0538,
		RAANDeg:             175.1204,
		Eccentricity:        0.0001423,
		ArgPerigeeDeg:       90.5,
		MeanAnomalyDeg:      200.25,
		MeanMotionRevPerDay: 15.06391562,
	}
	line1, line2 := tletest.MakeTLE(want)

	rec, err := ParseGroup("STARLINK-1007", line1, line2, model.ConstellationStarlink)
	if err != nil {
		t.Fatalf("ParseGroup: %v", err)
	}
	if rec.SatelliteID != want.CatalogNumber {
		t.Errorf("SatelliteID = %d, want %d", rec.SatelliteID, want.CatalogNumber)
	}
	if !rec.Epoch.Equal(want.Epoch) {
		t.Errorf("Epoch = %v, want %v", rec.Epoch, want.Epoch)
	}
	el := rec.Elements
	if math.Abs(el.InclinationDeg-want.InclinationDeg) > 1e-4 ||
		math.Abs(el.RAANDeg-want.RAANDeg) > 1e-4 ||
		math.Abs(el.ArgPerigeeDeg-want.ArgPerigeeDeg) > 1e-4 ||
		math.Abs(el.MeanAnomalyDeg-want.MeanAnomalyDeg) > 1e-4 {
		t.Errorf("angles did not round-trip: %+v", el)
	}
	if math.Abs(el.Eccentricity-want.Eccentricity) > 1e-7 {
		t.Errorf("Eccentricity = %v, want %v", el.Eccentricity, want.Eccentricity)
	}
	if math.Abs(el.MeanMotionRevPerDay-want.MeanMotionRevPerDay) > 1e-8 {
		t.Errorf("MeanMotion = %v, want %v", el.MeanMotionRevPerDay, want.MeanMotionRevPerDay)
	}
}

func TestParseGroupCenturyPivot(t *testing.T) {
	cases := []struct {
		epoch time.Time
		year  int
	}{
		{time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(1999, 3, 1, 0, 0, 0, 0, time.UTC), 1999},
		{time.Date(1957, 10, 4, 0, 0, 0, 0, time.UTC), 1957},
	}
	for _, c := range cases {
		line1, line2 := tletest.MakeTLE(tletest.Params{CatalogNumber: 1, Epoch: c.epoch})
		rec, err := ParseGroup("SAT", line1, line2, model.ConstellationOneWeb)
		if err != nil {
			t.Fatalf("epoch %v: %v", c.epoch, err)
		}
		if rec.Epoch.Year() != c.year {
			t.Errorf("epoch %v parsed to year %d, want %d", c.epoch, rec.Epoch.Year(), c.year)
		}
	}
}

func TestParseGroupRejectsBadInput(t *testing.T) {
	otherLine1, otherLine2 := tletest.MakeTLE(tletest.Params{CatalogNumber: 99999})

	cases := []struct {
		name     string
		line1    string
		line2    string
		wantLine int
	}{
		{"short line 1", issLine1[:68], issLine2, 1},
		{"short line 2", issLine1, issLine2[:68], 2},
		{"wrong prefix line 1", "3" + issLine1[1:], issLine2, 1},
		{"wrong prefix line 2", issLine1, "1" + issLine2[1:], 2},
		{"bad checksum line 1", issLine1[:68] + "7", issLine2, 1},
		{"bad checksum line 2", issLine1, issLine2[:68] + "0", 2},
		{"catalog mismatch", issLine1, otherLine2, 2},
		{"mismatched pair", otherLine1, issLine2, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseGroup("SAT", c.line1, c.line2, model.ConstellationStarlink)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Line != c.wantLine {
				t.Errorf("Line = %d, want %d (%v)", verr.Line, c.wantLine, verr)
			}
		})
	}
}

func TestParseGroupRejectsZeroMeanMotion(t *testing.T) {
	// Build a checksum-valid line 2 whose mean motion field is all zeros.
	line1, line2 := tletest.MakeTLE(tletest.Params{CatalogNumber: 7})
	body := line2[:52] + " 0.00000000" + line2[63:68]
	line2 = body + string(rune('0'+Checksum(body+"0")))

	_, err := ParseGroup("SAT", line1, line2, model.ConstellationStarlink)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
