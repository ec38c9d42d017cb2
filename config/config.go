// Package config holds the immutable pipeline configuration. Components
// receive a Config (or a slice of it) at construction time; nothing reads
// per-constellation thresholds from package-level state.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/orbitpool/model"
)

// Observer is the fixed ground station all visibility is computed against.
type Observer struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeM    float64
}

// PoolTarget bounds the dynamic pool for one constellation: the visible-count
// band that must hold at every time offset, and the pool size limits the
// selector works within.
type PoolTarget struct {
	MinVisible  int
	MaxVisible  int
	MinPoolSize int
	MaxPoolSize int
}

// ConstellationConfig is the per-constellation tuning. Elevation thresholds
// must always be explicit; there is no silent global default.
type ConstellationConfig struct {
	ElevationThresholdDeg float64
	NominalPeriodMinutes  float64 // used only to sanity-check series lengths
	Target                PoolTarget
}

// PhaseTuning controls the phase-displacement heuristic in the pool selector.
// The preferred-zone set is empirical with no derivation; treat it as a
// starting default, not ground truth.
type PhaseTuning struct {
	PreferredZones       []int // mean-anomaly buckets (0..7) given full phase score
	DurationWeight       float64
	ElevationWeight      float64
	PhaseWeight          float64
	RefinementIterations int // bounded swap refinement after a failed verification
}

// Config is the full, immutable pipeline configuration.
type Config struct {
	Observer       Observer
	Constellations map[model.Constellation]ConstellationConfig
	Phase          PhaseTuning

	SampleInterval  time.Duration
	StaleEpochAfter time.Duration // TLE age beyond which a stale warning fires
	Strict          bool          // stale TLEs become errors instead of warnings
	Workers         int           // parallel series-generation goroutines

	TLEDir string
	OutDir string
}

// Default returns the configuration matching the documented service
// thresholds (ITU-R P.618-derived: 5° Starlink, 10° OneWeb) and the
// empirical phase-zone defaults.
func Default() Config {
	return Config{
		Observer: Observer{
			// NTPU ground station, Taipei.
			LatitudeDeg:  24.9441,
			LongitudeDeg: 121.3714,
			AltitudeM:    0,
		},
		Constellations: map[model.Constellation]ConstellationConfig{
			model.ConstellationStarlink: {
				ElevationThresholdDeg: 5.0,
				NominalPeriodMinutes:  96,
				Target:                PoolTarget{MinVisible: 10, MaxVisible: 15, MinPoolSize: 10, MaxPoolSize: 18},
			},
			model.ConstellationOneWeb: {
				ElevationThresholdDeg: 10.0,
				NominalPeriodMinutes:  109,
				Target:                PoolTarget{MinVisible: 3, MaxVisible: 6, MinPoolSize: 3, MaxPoolSize: 8},
			},
		},
		Phase: PhaseTuning{
			PreferredZones:       []int{0, 2, 4, 6},
			DurationWeight:       0.4,
			ElevationWeight:      0.3,
			PhaseWeight:          0.3,
			RefinementIterations: 25,
		},
		SampleInterval:  30 * time.Second,
		StaleEpochAfter: 72 * time.Hour,
		Workers:         8,
		TLEDir:          "tle_data",
		OutDir:          "out",
	}
}

// ForConstellation returns the tuning for c, failing when the constellation
// has no explicit configuration.
func (c Config) ForConstellation(cn model.Constellation) (ConstellationConfig, error) {
	cc, ok := c.Constellations[cn]
	if !ok {
		return ConstellationConfig{}, fmt.Errorf("no configuration for constellation %q", cn)
	}
	return cc, nil
}

// Validate checks internal consistency before a pipeline run.
func (c Config) Validate() error {
	if c.Observer.LatitudeDeg < -90 || c.Observer.LatitudeDeg > 90 {
		return fmt.Errorf("observer latitude %.4f out of range", c.Observer.LatitudeDeg)
	}
	if len(c.Constellations) == 0 {
		return fmt.Errorf("no constellations configured")
	}
	for cn, cc := range c.Constellations {
		if !cn.Valid() {
			return fmt.Errorf("unknown constellation %q", cn)
		}
		if cc.ElevationThresholdDeg <= 0 {
			return fmt.Errorf("%s: elevation threshold must be explicit and positive", cn)
		}
		if cc.NominalPeriodMinutes <= 0 {
			return fmt.Errorf("%s: nominal period must be positive", cn)
		}
		t := cc.Target
		if t.MinVisible < 1 || t.MaxVisible < t.MinVisible {
			return fmt.Errorf("%s: visible-count band [%d,%d] is invalid", cn, t.MinVisible, t.MaxVisible)
		}
		if t.MinPoolSize < t.MinVisible {
			return fmt.Errorf("%s: MinPoolSize %d below MinVisible %d", cn, t.MinPoolSize, t.MinVisible)
		}
		if t.MaxPoolSize < t.MinPoolSize {
			return fmt.Errorf("%s: MaxPoolSize %d below MinPoolSize %d", cn, t.MaxPoolSize, t.MinPoolSize)
		}
	}
	w := c.Phase.DurationWeight + c.Phase.ElevationWeight + c.Phase.PhaseWeight
	if w < 0.999 || w > 1.001 {
		return fmt.Errorf("phase tuning weights must sum to 1.0, got %.3f", w)
	}
	for _, z := range c.Phase.PreferredZones {
		if z < 0 || z > 7 {
			return fmt.Errorf("preferred phase zone %d out of range 0..7", z)
		}
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	return nil
}

// internal JSON shapes - kept unexported so the on-disk format can evolve
// without touching the Config API.
type configJSON struct {
	Observer       *observerJSON                `json:"observer,omitempty"`
	Constellations map[string]constellationJSON `json:"constellations"`
	Phase          *phaseJSON                   `json:"phase,omitempty"`
	SampleSeconds  float64                      `json:"sample_interval_seconds"`
	StaleHours     float64                      `json:"stale_epoch_hours"`
	Strict         bool                         `json:"strict"`
	Workers        int                          `json:"workers"`
	TLEDir         string                       `json:"tle_dir"`
	OutDir         string                       `json:"out_dir"`
}

type observerJSON struct {
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"`
	AltitudeM    float64 `json:"altitude_m"`
}

type constellationJSON struct {
	ElevationThresholdDeg float64 `json:"elevation_threshold_deg"`
	NominalPeriodMinutes  float64 `json:"nominal_period_minutes"`
	MinVisible            int     `json:"min_visible"`
	MaxVisible            int     `json:"max_visible"`
	MinPoolSize           int     `json:"min_pool_size"`
	MaxPoolSize           int     `json:"max_pool_size"`
}

type phaseJSON struct {
	PreferredZones       []int   `json:"preferred_zones"`
	DurationWeight       float64 `json:"duration_weight"`
	ElevationWeight      float64 `json:"elevation_weight"`
	PhaseWeight          float64 `json:"phase_weight"`
	RefinementIterations int     `json:"refinement_iterations"`
}

// Load reads a JSON configuration from r, starting from Default() so a file
// only needs to override what differs, and validates the result.
func Load(r io.Reader) (Config, error) {
	var payload configJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return Config{}, fmt.Errorf("config: decode failed: %w", err)
	}

	cfg := Default()
	if payload.Observer != nil {
		cfg.Observer = Observer(*payload.Observer)
	}

	if len(payload.Constellations) > 0 {
		cfg.Constellations = make(map[model.Constellation]ConstellationConfig, len(payload.Constellations))
		for name, cj := range payload.Constellations {
			cn := model.Constellation(name)
			minPool := cj.MinPoolSize
			if minPool == 0 {
				minPool = cj.MinVisible
			}
			cfg.Constellations[cn] = ConstellationConfig{
				ElevationThresholdDeg: cj.ElevationThresholdDeg,
				NominalPeriodMinutes:  cj.NominalPeriodMinutes,
				Target: PoolTarget{
					MinVisible:  cj.MinVisible,
					MaxVisible:  cj.MaxVisible,
					MinPoolSize: minPool,
					MaxPoolSize: cj.MaxPoolSize,
				},
			}
		}
	}

	if payload.Phase != nil {
		cfg.Phase = PhaseTuning{
			PreferredZones:       payload.Phase.PreferredZones,
			DurationWeight:       payload.Phase.DurationWeight,
			ElevationWeight:      payload.Phase.ElevationWeight,
			PhaseWeight:          payload.Phase.PhaseWeight,
			RefinementIterations: payload.Phase.RefinementIterations,
		}
	}
	if payload.SampleSeconds > 0 {
		cfg.SampleInterval = time.Duration(payload.SampleSeconds * float64(time.Second))
	}
	if payload.StaleHours > 0 {
		cfg.StaleEpochAfter = time.Duration(payload.StaleHours * float64(time.Hour))
	}
	cfg.Strict = payload.Strict
	if payload.Workers > 0 {
		cfg.Workers = payload.Workers
	}
	if payload.TLEDir != "" {
		cfg.TLEDir = payload.TLEDir
	}
	if payload.OutDir != "" {
		cfg.OutDir = payload.OutDir
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
