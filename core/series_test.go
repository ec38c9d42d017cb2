package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/timectrl"
	"github.com/signalsfoundry/orbitpool/tle"
	"github.com/signalsfoundry/orbitpool/tle/tletest"
)

func syntheticPropagator(t *testing.T, catalog int, meanMotion float64) *Propagator {
	t.Helper()
	line1, line2 := tletest.MakeTLE(tletest.Params{
		CatalogNumber:       catalog,
		Epoch:               time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC),
		InclinationDeg:      53.05,
		RAANDeg:             123.4,
		Eccentricity:        0.0001,
		ArgPerigeeDeg:       90,
		MeanAnomalyDeg:      45,
		MeanMotionRevPerDay: meanMotion,
	})
	rec, err := tle.ParseGroup("SYNTH", line1, line2, model.ConstellationStarlink)
	if err != nil {
		t.Fatalf("parse synthetic TLE: %v", err)
	}
	p, err := NewPropagator(t.Context(), rec, timectrl.FixedClock{T: rec.Epoch}, 72*time.Hour, false, logging.Noop())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	return p
}

func starlinkConfig() config.ConstellationConfig {
	return config.ConstellationConfig{
		ElevationThresholdDeg: 5.0,
		NominalPeriodMinutes:  96,
		Target:                config.PoolTarget{MinVisible: 10, MaxVisible: 15, MinPoolSize: 10, MaxPoolSize: 18},
	}
}

func TestGenerateSeriesSpansOneOrbitalPeriod(t *testing.T) {
	// 15 rev/day is a 96-minute period: 192 samples at 30s.
	p := syntheticPropagator(t, 44713, 15.0)

	series, err := GenerateSeries(p, config.Observer{LatitudeDeg: 24.9441, LongitudeDeg: 121.3714}, starlinkConfig(), 30*time.Second)
	if err != nil {
		t.Fatalf("GenerateSeries: %v", err)
	}

	if series.Len() != 192 {
		t.Fatalf("got %d samples, want 192", series.Len())
	}
	if series.IntervalSeconds != 30 {
		t.Errorf("IntervalSeconds = %v", series.IntervalSeconds)
	}
	if !series.Epoch.Equal(p.Record().Epoch) {
		t.Errorf("series epoch %v, want TLE epoch %v", series.Epoch, p.Record().Epoch)
	}
	for i, s := range series.Samples {
		if want := float64(i) * 30; s.TimeOffsetSeconds != want {
			t.Fatalf("sample %d offset = %v, want %v", i, s.TimeOffsetSeconds, want)
		}
		if s.SatelliteID != 44713 {
			t.Fatalf("sample %d satellite = %d", i, s.SatelliteID)
		}
	}
}

func TestGenerateSeriesIsDeterministic(t *testing.T) {
	obs := config.Observer{LatitudeDeg: 24.9441, LongitudeDeg: 121.3714}

	a, err := GenerateSeries(syntheticPropagator(t, 44713, 15.0), obs, starlinkConfig(), 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateSeries(syntheticPropagator(t, 44713, 15.0), obs, starlinkConfig(), 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %+v vs %+v", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestGenerateSeriesRejectsImplausiblyShortPeriod(t *testing.T) {
	// 20 rev/day gives a 72-minute period, under 80% of the 96-minute
	// nominal expectation.
	p := syntheticPropagator(t, 44714, 20.0)

	_, err := GenerateSeries(p, config.Observer{}, starlinkConfig(), 30*time.Second)
	if err == nil {
		t.Fatal("short series accepted")
	}
}
