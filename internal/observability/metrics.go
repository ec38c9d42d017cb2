package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the visibility pipeline
// and provides a ready-to-serve /metrics handler.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	SatellitesProcessed *prometheus.CounterVec
	StaleTLEs           *prometheus.CounterVec
	StageDurations      *prometheus.HistogramVec

	PoolSize       *prometheus.GaugeVec
	PoolViolations *prometheus.GaugeVec
	MinVisible     *prometheus.GaugeVec
	MaxVisible     *prometheus.GaugeVec
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_satellites_processed_total",
		Help: "Satellites whose time series generation finished, labeled by constellation and result (ok|error).",
	}, []string{"constellation", "result"})
	processed, err := registerCounterVec(reg, processed, "pipeline_satellites_processed_total")
	if err != nil {
		return nil, err
	}

	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stale_tles_total",
		Help: "TLEs older than the freshness threshold encountered during a run.",
	}, []string{"constellation"})
	stale, err = registerCounterVec(reg, stale, "pipeline_stale_tles_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Wall time of each pipeline stage.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "pipeline_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	poolSize, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_pool_size",
		Help: "Number of satellites in the selected dynamic pool.",
	}, []string{"constellation"}), "pipeline_pool_size")
	if err != nil {
		return nil, err
	}
	poolViolations, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_pool_violations",
		Help: "Coverage snapshots outside the target visible-count band for the selected pool.",
	}, []string{"constellation"}), "pipeline_pool_violations")
	if err != nil {
		return nil, err
	}
	minVisible, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_min_visible",
		Help: "Minimum simultaneously-visible count over the orbital period for the selected pool.",
	}, []string{"constellation"}), "pipeline_min_visible")
	if err != nil {
		return nil, err
	}
	maxVisible, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_max_visible",
		Help: "Maximum simultaneously-visible count over the orbital period for the selected pool.",
	}, []string{"constellation"}), "pipeline_max_visible")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:            gatherer,
		SatellitesProcessed: processed,
		StaleTLEs:           stale,
		StageDurations:      durations,
		PoolSize:            poolSize,
		PoolViolations:      poolViolations,
		MinVisible:          minVisible,
		MaxVisible:          maxVisible,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveStage records the duration of one pipeline stage. Nil-safe so
// library code can run without metrics wired.
func (c *PipelineCollector) ObserveStage(stage string, seconds float64) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(seconds)
}

// RecordSatellite counts one satellite processed with the given result.
func (c *PipelineCollector) RecordSatellite(constellation string, ok bool) {
	if c == nil || c.SatellitesProcessed == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.SatellitesProcessed.WithLabelValues(constellation, result).Inc()
}

// RecordStaleTLE counts one stale TLE encountered.
func (c *PipelineCollector) RecordStaleTLE(constellation string) {
	if c == nil || c.StaleTLEs == nil {
		return
	}
	c.StaleTLEs.WithLabelValues(constellation).Inc()
}

// SetPoolStats publishes the gauges describing a freshly selected pool.
func (c *PipelineCollector) SetPoolStats(constellation string, size, violations, minVisible, maxVisible int) {
	if c == nil {
		return
	}
	if c.PoolSize != nil {
		c.PoolSize.WithLabelValues(constellation).Set(float64(size))
	}
	if c.PoolViolations != nil {
		c.PoolViolations.WithLabelValues(constellation).Set(float64(violations))
	}
	if c.MinVisible != nil {
		c.MinVisible.WithLabelValues(constellation).Set(float64(minVisible))
	}
	if c.MaxVisible != nil {
		c.MaxVisible.WithLabelValues(constellation).Set(float64(maxVisible))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
