// Package kb is the in-memory knowledge base of pipeline results: the
// per-satellite time series, per-constellation coverage snapshots, and
// selected pools that external collaborators (API servers, RL environments,
// reporting tools) read after a run.
package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/orbitpool/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventSeriesStored EventType = iota
	EventPoolUpdated
)

// Event is emitted to subscribers when results change.
type Event struct {
	Type          EventType
	Constellation model.Constellation
	SatelliteID   int // set for EventSeriesStored
}

// KnowledgeBase is a thread-safe store for pipeline result artifacts.
// Stored values are treated as immutable: writers replace, never mutate.
type KnowledgeBase struct {
	mu sync.RWMutex

	series    map[int]model.SatelliteTimeSeries
	snapshots map[model.Constellation][]model.CoverageSnapshot
	pools     map[model.Constellation]model.SatellitePool

	subs []func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		series:    make(map[int]model.SatelliteTimeSeries),
		snapshots: make(map[model.Constellation][]model.CoverageSnapshot),
		pools:     make(map[model.Constellation]model.SatellitePool),
	}
}

// Subscribe registers a callback invoked on every stored change. Callbacks
// run synchronously on the writer's goroutine and must not call back into
// the KB.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.subs = append(kb.subs, fn)
}

// PutSeries stores a satellite's time series. It returns an error if a
// series for the satellite already exists, since records within one run are
// immutable; a new ingestion date means a fresh KB.
func (kb *KnowledgeBase) PutSeries(s model.SatelliteTimeSeries) error {
	kb.mu.Lock()
	if _, exists := kb.series[s.SatelliteID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("series for satellite %d already stored", s.SatelliteID)
	}
	kb.series[s.SatelliteID] = s
	subs := kb.subs
	kb.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Type: EventSeriesStored, Constellation: s.Constellation, SatelliteID: s.SatelliteID})
	}
	return nil
}

// Series returns the stored time series for a satellite.
func (kb *KnowledgeBase) Series(satelliteID int) (model.SatelliteTimeSeries, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	s, ok := kb.series[satelliteID]
	return s, ok
}

// SeriesByConstellation returns all stored series for one constellation,
// ordered by satellite ID.
func (kb *KnowledgeBase) SeriesByConstellation(cn model.Constellation) []model.SatelliteTimeSeries {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	var out []model.SatelliteTimeSeries
	for _, s := range kb.series {
		if s.Constellation == cn {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SatelliteID < out[j].SatelliteID })
	return out
}

// PutSnapshots stores a constellation's coverage snapshot sequence.
func (kb *KnowledgeBase) PutSnapshots(cn model.Constellation, snaps []model.CoverageSnapshot) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.snapshots[cn] = snaps
}

// Snapshots returns a constellation's coverage snapshot sequence.
func (kb *KnowledgeBase) Snapshots(cn model.Constellation) ([]model.CoverageSnapshot, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	s, ok := kb.snapshots[cn]
	return s, ok
}

// PutPool stores the selected pool for a constellation and notifies
// subscribers, so consumers can re-bound their satellite sets.
func (kb *KnowledgeBase) PutPool(p model.SatellitePool) {
	kb.mu.Lock()
	kb.pools[p.Constellation] = p
	subs := kb.subs
	kb.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Type: EventPoolUpdated, Constellation: p.Constellation})
	}
}

// Pool returns the current pool for a constellation.
func (kb *KnowledgeBase) Pool(cn model.Constellation) (model.SatellitePool, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	p, ok := kb.pools[cn]
	return p, ok
}
