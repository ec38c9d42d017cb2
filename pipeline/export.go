package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/signalsfoundry/orbitpool/model"
)

// TimeSeriesDocument is the on-disk shape of one constellation's visibility
// time series. Timestamps are RFC 3339 UTC; offsets are seconds from each
// satellite's TLE epoch.
type TimeSeriesDocument struct {
	Metadata   Metadata            `json:"metadata"`
	Satellites []SatelliteDocument `json:"satellites"`
}

type Metadata struct {
	GeneratedAt           time.Time `json:"generated_at"`
	Constellation         string    `json:"constellation"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	SampleIntervalSeconds float64   `json:"sample_interval_seconds"`
}

type SatelliteDocument struct {
	SatelliteID   int              `json:"satellite_id"`
	Constellation string           `json:"constellation"`
	TimeSeries    []SampleDocument `json:"timeseries"`
}

type SampleDocument struct {
	Time              time.Time `json:"time"`
	TimeOffsetSeconds float64   `json:"time_offset_seconds"`
	ElevationDeg      float64   `json:"elevation_deg"`
	AzimuthDeg        float64   `json:"azimuth_deg"`
	RangeKm           float64   `json:"range_km"`
	IsVisible         bool      `json:"is_visible"`
}

// CoverageDocument holds the aggregated per-instant visible sets for one
// constellation.
type CoverageDocument struct {
	Metadata  Metadata        `json:"metadata"`
	Snapshots []SnapshotEntry `json:"snapshots"`
}

type SnapshotEntry struct {
	TimeOffsetSeconds   float64 `json:"time_offset_seconds"`
	VisibleSatelliteIDs []int   `json:"visible_satellite_ids"`
	VisibleCount        int     `json:"visible_count"`
}

// PoolDocument lists the selected pool for every constellation of a run.
type PoolDocument struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Pools       []PoolEntry `json:"pools"`
}

type PoolEntry struct {
	Constellation     string  `json:"constellation"`
	SatelliteIDs      []int   `json:"satellite_ids"`
	PoolSize          int     `json:"pool_size"`
	Compliant         bool    `json:"compliant"`
	ViolationCount    int     `json:"violation_count"`
	OptimizationScore float64 `json:"optimization_score"`
}

// NewTimeSeriesDocument converts in-memory series to the artifact shape.
// Satellites are ordered by ID and samples keep their grid order.
func NewTimeSeriesDocument(generatedAt time.Time, cn model.Constellation, interval time.Duration, series []model.SatelliteTimeSeries) TimeSeriesDocument {
	doc := TimeSeriesDocument{
		Metadata: Metadata{
			GeneratedAt:           generatedAt.UTC(),
			Constellation:         string(cn),
			SampleIntervalSeconds: interval.Seconds(),
		},
		Satellites: make([]SatelliteDocument, 0, len(series)),
	}

	for _, s := range series {
		sd := SatelliteDocument{
			SatelliteID:   s.SatelliteID,
			Constellation: string(s.Constellation),
			TimeSeries:    make([]SampleDocument, len(s.Samples)),
		}
		for i, sample := range s.Samples {
			t := s.Epoch.Add(time.Duration(sample.TimeOffsetSeconds * float64(time.Second))).UTC()
			sd.TimeSeries[i] = SampleDocument{
				Time:              t,
				TimeOffsetSeconds: sample.TimeOffsetSeconds,
				ElevationDeg:      sample.ElevationDeg,
				AzimuthDeg:        sample.AzimuthDeg,
				RangeKm:           sample.RangeKm,
				IsVisible:         sample.IsVisible,
			}
			if doc.Metadata.StartTime.IsZero() || t.Before(doc.Metadata.StartTime) {
				doc.Metadata.StartTime = t
			}
			if t.After(doc.Metadata.EndTime) {
				doc.Metadata.EndTime = t
			}
		}
		doc.Satellites = append(doc.Satellites, sd)
	}
	sort.Slice(doc.Satellites, func(i, j int) bool {
		return doc.Satellites[i].SatelliteID < doc.Satellites[j].SatelliteID
	})
	return doc
}

// Series reconstructs the in-memory series from a parsed document. The
// epoch of each satellite is recovered from its offset-zero sample.
func (d TimeSeriesDocument) Series() ([]model.SatelliteTimeSeries, error) {
	interval := d.Metadata.SampleIntervalSeconds
	out := make([]model.SatelliteTimeSeries, 0, len(d.Satellites))
	for _, sd := range d.Satellites {
		cn := model.Constellation(sd.Constellation)
		if !cn.Valid() {
			return nil, fmt.Errorf("timeseries document: satellite %d: unknown constellation %q", sd.SatelliteID, sd.Constellation)
		}
		if len(sd.TimeSeries) == 0 {
			return nil, fmt.Errorf("timeseries document: satellite %d: empty series", sd.SatelliteID)
		}
		s := model.SatelliteTimeSeries{
			SatelliteID:     sd.SatelliteID,
			Constellation:   cn,
			IntervalSeconds: interval,
			Samples:         make([]model.VisibilitySample, len(sd.TimeSeries)),
		}
		first := sd.TimeSeries[0]
		s.Epoch = first.Time.Add(-time.Duration(first.TimeOffsetSeconds * float64(time.Second))).UTC()
		for i, sample := range sd.TimeSeries {
			s.Samples[i] = model.VisibilitySample{
				SatelliteID:       sd.SatelliteID,
				Constellation:     cn,
				TimeOffsetSeconds: sample.TimeOffsetSeconds,
				ElevationDeg:      sample.ElevationDeg,
				AzimuthDeg:        sample.AzimuthDeg,
				RangeKm:           sample.RangeKm,
				IsVisible:         sample.IsVisible,
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// NewCoverageDocument converts coverage snapshots to the artifact shape.
func NewCoverageDocument(generatedAt time.Time, cn model.Constellation, interval time.Duration, snapshots []model.CoverageSnapshot) CoverageDocument {
	doc := CoverageDocument{
		Metadata: Metadata{
			GeneratedAt:           generatedAt.UTC(),
			Constellation:         string(cn),
			SampleIntervalSeconds: interval.Seconds(),
		},
		Snapshots: make([]SnapshotEntry, len(snapshots)),
	}
	for i, snap := range snapshots {
		doc.Snapshots[i] = SnapshotEntry{
			TimeOffsetSeconds:   snap.TimeOffsetSeconds,
			VisibleSatelliteIDs: snap.VisibleSatelliteIDs,
			VisibleCount:        snap.VisibleCount,
		}
	}
	return doc
}

// NewPoolDocument flattens the selected pools of a run, ordered by
// constellation name.
func NewPoolDocument(res *Result) PoolDocument {
	doc := PoolDocument{GeneratedAt: res.GeneratedAt.UTC()}
	for _, pool := range res.Pools {
		doc.Pools = append(doc.Pools, PoolEntry{
			Constellation:     string(pool.Constellation),
			SatelliteIDs:      pool.SatelliteIDs,
			PoolSize:          len(pool.SatelliteIDs),
			Compliant:         pool.Compliant,
			ViolationCount:    pool.ViolationCount,
			OptimizationScore: pool.OptimizationScore,
		})
	}
	sort.Slice(doc.Pools, func(i, j int) bool { return doc.Pools[i].Constellation < doc.Pools[j].Constellation })
	return doc
}

// WriteJSON writes any artifact document with stable two-space indentation.
func WriteJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ParseTimeSeriesDocument reads an artifact back; the inverse of
// NewTimeSeriesDocument + WriteJSON.
func ParseTimeSeriesDocument(r io.Reader) (TimeSeriesDocument, error) {
	var doc TimeSeriesDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return TimeSeriesDocument{}, fmt.Errorf("timeseries document: %w", err)
	}
	return doc, nil
}

// WriteArtifacts writes the full artifact set of a run under dir:
// timeseries_<constellation>.json and coverage_<constellation>.json per
// constellation, plus a single pools.json.
func WriteArtifacts(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}

	for cn, series := range res.Series {
		doc := NewTimeSeriesDocument(res.GeneratedAt, cn, res.SampleInterval, series)
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("timeseries_%s.json", cn)), doc); err != nil {
			return err
		}
	}
	for cn, snapshots := range res.Snapshots {
		doc := NewCoverageDocument(res.GeneratedAt, cn, res.SampleInterval, snapshots)
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("coverage_%s.json", cn)), doc); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, "pools.json"), NewPoolDocument(res))
}

func writeFile(path string, doc any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if err := WriteJSON(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("artifacts: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("artifacts: %s: %w", path, err)
	}
	return nil
}
