package kb

import (
	"sync"
	"testing"

	"github.com/signalsfoundry/orbitpool/model"
)

func makeSeries(id int, cn model.Constellation) model.SatelliteTimeSeries {
	return model.SatelliteTimeSeries{
		SatelliteID:     id,
		Constellation:   cn,
		IntervalSeconds: 30,
		Samples: []model.VisibilitySample{
			{SatelliteID: id, Constellation: cn, ElevationDeg: 45, IsVisible: true},
		},
	}
}

func TestPutAndGetSeries(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.PutSeries(makeSeries(44713, model.ConstellationStarlink)); err != nil {
		t.Fatalf("PutSeries error: %v", err)
	}
	got, ok := store.Series(44713)
	if !ok || got.Constellation != model.ConstellationStarlink {
		t.Fatalf("Series returned %#v, ok=%v", got, ok)
	}
}

func TestPutSeriesDuplicate(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.PutSeries(makeSeries(1, model.ConstellationStarlink)); err != nil {
		t.Fatalf("first PutSeries error: %v", err)
	}
	if err := store.PutSeries(makeSeries(1, model.ConstellationStarlink)); err == nil {
		t.Fatalf("expected duplicate PutSeries to fail")
	}
}

func TestSeriesByConstellationOrdering(t *testing.T) {
	store := NewKnowledgeBase()
	for _, id := range []int{30, 10, 20} {
		if err := store.PutSeries(makeSeries(id, model.ConstellationOneWeb)); err != nil {
			t.Fatalf("PutSeries(%d) error: %v", id, err)
		}
	}
	if err := store.PutSeries(makeSeries(99, model.ConstellationStarlink)); err != nil {
		t.Fatalf("PutSeries error: %v", err)
	}

	got := store.SeriesByConstellation(model.ConstellationOneWeb)
	if len(got) != 3 {
		t.Fatalf("got %d series, want 3", len(got))
	}
	for i, want := range []int{10, 20, 30} {
		if got[i].SatelliteID != want {
			t.Fatalf("series[%d].SatelliteID = %d, want %d", i, got[i].SatelliteID, want)
		}
	}
}

func TestPutPoolNotifiesSubscribers(t *testing.T) {
	store := NewKnowledgeBase()

	var wg sync.WaitGroup
	wg.Add(1)
	var got Event
	store.Subscribe(func(e Event) {
		got = e
		wg.Done()
	})

	store.PutPool(model.SatellitePool{
		Constellation: model.ConstellationStarlink,
		SatelliteIDs:  []int{1, 2, 3},
		Compliant:     true,
	})

	wg.Wait()
	if got.Type != EventPoolUpdated {
		t.Fatalf("got event type %v, want EventPoolUpdated", got.Type)
	}
	if got.Constellation != model.ConstellationStarlink {
		t.Fatalf("event constellation = %s, want starlink", got.Constellation)
	}

	p, ok := store.Pool(model.ConstellationStarlink)
	if !ok || len(p.SatelliteIDs) != 3 {
		t.Fatalf("Pool returned %#v, ok=%v", p, ok)
	}
}

func TestSnapshotsRoundTrip(t *testing.T) {
	store := NewKnowledgeBase()
	snaps := []model.CoverageSnapshot{
		{Constellation: model.ConstellationOneWeb, TimeOffsetSeconds: 0, VisibleCount: 4},
		{Constellation: model.ConstellationOneWeb, TimeOffsetSeconds: 30, VisibleCount: 5},
	}
	store.PutSnapshots(model.ConstellationOneWeb, snaps)

	got, ok := store.Snapshots(model.ConstellationOneWeb)
	if !ok || len(got) != 2 || got[1].VisibleCount != 5 {
		t.Fatalf("Snapshots returned %#v, ok=%v", got, ok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.PutSeries(makeSeries(i, model.ConstellationStarlink))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Series(1)
			_ = store.SeriesByConstellation(model.ConstellationStarlink)
		}()
	}
	wg.Wait()
}
