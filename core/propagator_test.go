package core

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/timectrl"
	"github.com/signalsfoundry/orbitpool/tle"
)

const (
	issLine1 = "1 25544U 98067A   25025.00048859  .00033214  00000+0  57704-3 0  9996"
	issLine2 = "2 25544  51.6377 296.2827 0003104 141.8447 313.9175 15.50506992492954"
)

func issRecord(t *testing.T) model.TLERecord {
	t.Helper()
	rec, err := tle.ParseGroup("ISS (ZARYA)", issLine1, issLine2, model.ConstellationStarlink)
	if err != nil {
		t.Fatalf("parse ISS TLE: %v", err)
	}
	return rec
}

// recordingLogger captures messages for assertions.
type recordingLogger struct {
	mu   sync.Mutex
	warn []string
}

func (r *recordingLogger) Debug(context.Context, string, ...logging.Field) {}
func (r *recordingLogger) Info(context.Context, string, ...logging.Field)  {}
func (r *recordingLogger) Warn(_ context.Context, msg string, _ ...logging.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warn = append(r.warn, msg)
}
func (r *recordingLogger) Error(context.Context, string, ...logging.Field) {}
func (r *recordingLogger) With(...logging.Field) logging.Logger            { return r }

func (r *recordingLogger) warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warn...)
}

func TestPropagateAtEpochIsLowEarthOrbit(t *testing.T) {
	rec := issRecord(t)
	clock := timectrl.FixedClock{T: rec.Epoch}

	p, err := NewPropagator(context.Background(), rec, clock, 72*time.Hour, false, logging.Noop())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	pos, err := p.Propagate(0)
	if err != nil {
		t.Fatalf("Propagate(0): %v", err)
	}
	radius := math.Sqrt(pos.PositionECI.X*pos.PositionECI.X +
		pos.PositionECI.Y*pos.PositionECI.Y +
		pos.PositionECI.Z*pos.PositionECI.Z)
	if radius < 6500 || radius > 7100 {
		t.Errorf("radius at epoch = %.1f km, expected ISS altitude band", radius)
	}
	if !pos.Timestamp.Equal(rec.Epoch) {
		t.Errorf("Timestamp = %v, want the TLE epoch %v", pos.Timestamp, rec.Epoch)
	}
}

func TestPropagateOffsetsAreEpochRelative(t *testing.T) {
	rec := issRecord(t)

	// Two propagators whose wall clocks disagree by days must still agree
	// exactly: offsets are measured from the TLE epoch, never from now.
	early, err := NewPropagator(context.Background(), rec,
		timectrl.FixedClock{T: rec.Epoch}, 30*24*time.Hour, false, logging.Noop())
	if err != nil {
		t.Fatal(err)
	}
	late, err := NewPropagator(context.Background(), rec,
		timectrl.FixedClock{T: rec.Epoch.Add(5 * 24 * time.Hour)}, 30*24*time.Hour, false, logging.Noop())
	if err != nil {
		t.Fatal(err)
	}

	a, err := early.Propagate(10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := late.Propagate(10)
	if err != nil {
		t.Fatal(err)
	}
	if a.PositionECI != b.PositionECI || !a.Timestamp.Equal(b.Timestamp) {
		t.Errorf("positions diverge with wall clock: %+v vs %+v", a, b)
	}
}

func TestStaleEpochWarnsButPropagates(t *testing.T) {
	rec := issRecord(t)
	clock := timectrl.FixedClock{T: rec.Epoch.Add(10 * 24 * time.Hour)}
	log := &recordingLogger{}

	p, err := NewPropagator(context.Background(), rec, clock, 72*time.Hour, false, log)
	if err != nil {
		t.Fatalf("stale TLE rejected outside strict mode: %v", err)
	}
	if _, err := p.Propagate(0); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(log.warnings()) == 0 {
		t.Error("no warning logged for a 10-day-old TLE")
	}
}

func TestStaleEpochStrictModeRejects(t *testing.T) {
	rec := issRecord(t)
	clock := timectrl.FixedClock{T: rec.Epoch.Add(10 * 24 * time.Hour)}

	_, err := NewPropagator(context.Background(), rec, clock, 72*time.Hour, true, logging.Noop())
	var stale *model.StaleEpochWarning
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleEpochWarning", err)
	}
	if stale.SatelliteID != rec.SatelliteID {
		t.Errorf("SatelliteID = %d, want %d", stale.SatelliteID, rec.SatelliteID)
	}
	if stale.Age < 9*24*time.Hour {
		t.Errorf("Age = %v, want ~10 days", stale.Age)
	}
}

func TestFutureEpochAgeIsAbsolute(t *testing.T) {
	rec := issRecord(t)
	// Clock well before the epoch: the age check must use magnitude.
	clock := timectrl.FixedClock{T: rec.Epoch.Add(-10 * 24 * time.Hour)}

	_, err := NewPropagator(context.Background(), rec, clock, 72*time.Hour, true, logging.Noop())
	var stale *model.StaleEpochWarning
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleEpochWarning", err)
	}
}
