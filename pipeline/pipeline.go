// Package pipeline runs the batch visibility computation end to end: parallel
// per-satellite time-series generation, per-constellation coverage
// aggregation, and dynamic pool selection, publishing results to the
// knowledge base and to JSON artifacts.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/core"
	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/internal/observability"
	"github.com/signalsfoundry/orbitpool/kb"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/timectrl"
)

// Failure records one satellite excluded from a run. Per-satellite
// propagation failures never abort the batch; they are counted, logged, and
// the satellite is left out of aggregation.
type Failure struct {
	SatelliteID   int
	Constellation model.Constellation
	Err           error
}

// Result is the immutable outcome of one pipeline run.
type Result struct {
	GeneratedAt    time.Time
	SampleInterval time.Duration
	Series         map[model.Constellation][]model.SatelliteTimeSeries
	Snapshots      map[model.Constellation][]model.CoverageSnapshot
	Pools          map[model.Constellation]model.SatellitePool
	Failures       []Failure
}

// Pipeline wires the stages together. Construct once per configuration;
// each Run is independent.
type Pipeline struct {
	cfg     config.Config
	clock   timectrl.Clock
	store   *kb.KnowledgeBase
	metrics *observability.PipelineCollector
	log     logging.Logger
	tracer  trace.Tracer
}

// New validates the configuration and builds a pipeline. store and metrics
// may be nil when no consumer needs them; clock defaults to the system
// clock.
func New(cfg config.Config, clock timectrl.Clock, store *kb.KnowledgeBase, metrics *observability.PipelineCollector, log logging.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Pipeline{
		cfg:     cfg,
		clock:   clock,
		store:   store,
		metrics: metrics,
		log:     log,
		tracer:  otel.Tracer("orbitpool/pipeline"),
	}, nil
}

// Run executes the full pipeline over the given TLE records. Structural
// problems (no records, a constellation with no usable series, an
// unconfigured constellation, under-provisioning) abort the run; individual
// satellite failures do not.
func (p *Pipeline) Run(ctx context.Context, records []model.TLERecord) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("pipeline: no TLE records to process")
	}

	ctx, log := logging.WithRunLogger(ctx, p.log)

	byConstellation := make(map[model.Constellation][]model.TLERecord)
	for _, rec := range records {
		byConstellation[rec.Constellation] = append(byConstellation[rec.Constellation], rec)
	}
	constellations := make([]model.Constellation, 0, len(byConstellation))
	for cn := range byConstellation {
		constellations = append(constellations, cn)
	}
	sort.Slice(constellations, func(i, j int) bool { return constellations[i] < constellations[j] })

	res := &Result{
		GeneratedAt:    p.clock.Now(),
		SampleInterval: p.cfg.SampleInterval,
		Series:         make(map[model.Constellation][]model.SatelliteTimeSeries),
		Snapshots:      make(map[model.Constellation][]model.CoverageSnapshot),
		Pools:          make(map[model.Constellation]model.SatellitePool),
	}

	for _, cn := range constellations {
		cc, err := p.cfg.ForConstellation(cn)
		if err != nil {
			return nil, err
		}
		recs := byConstellation[cn]

		series, failures, err := p.generateSeries(ctx, log, cn, cc, recs)
		if err != nil {
			return nil, err
		}
		res.Failures = append(res.Failures, failures...)
		if len(series) == 0 {
			return nil, fmt.Errorf("pipeline: %s: all %d satellites failed series generation", cn, len(recs))
		}

		candidates := make([]core.Candidate, len(series))
		recByID := make(map[int]model.TLERecord, len(recs))
		for _, rec := range recs {
			recByID[rec.SatelliteID] = rec
		}
		for i, s := range series {
			candidates[i] = core.Candidate{Record: recByID[s.SatelliteID], Series: s}
		}

		snapshots, err := p.aggregate(ctx, cn, series)
		if err != nil {
			return nil, err
		}

		pool, err := p.selectPool(ctx, log, cn, cc, candidates)
		if err != nil {
			return nil, err
		}

		res.Series[cn] = series
		res.Snapshots[cn] = snapshots
		res.Pools[cn] = pool

		p.publish(cn, series, snapshots, pool)
	}

	log.Info(ctx, "pipeline run complete",
		logging.Int("constellations", len(constellations)),
		logging.Int("satellites", len(records)),
		logging.Int("failures", len(res.Failures)),
	)
	return res, nil
}

// generateSeries runs propagation + visibility for every satellite of one
// constellation in parallel. This is the embarrassingly parallel stage:
// each goroutine owns its own record and emits an independent series, so
// there is no shared mutable state in the hot loop.
func (p *Pipeline) generateSeries(ctx context.Context, log logging.Logger, cn model.Constellation, cc config.ConstellationConfig, recs []model.TLERecord) ([]model.SatelliteTimeSeries, []Failure, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate_series",
		trace.WithAttributes(
			attribute.String("constellation", string(cn)),
			attribute.Int("satellites", len(recs)),
		))
	defer span.End()
	start := time.Now()

	var (
		mu       sync.Mutex
		series   []model.SatelliteTimeSeries
		failures []Failure
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p.recordStaleness(rec)
			prop, err := core.NewPropagator(ctx, rec, p.clock, p.cfg.StaleEpochAfter, p.cfg.Strict, log)
			if err == nil {
				var s model.SatelliteTimeSeries
				s, err = core.GenerateSeries(prop, p.cfg.Observer, cc, p.cfg.SampleInterval)
				if err == nil {
					mu.Lock()
					series = append(series, s)
					mu.Unlock()
					p.metrics.RecordSatellite(string(cn), true)
					return nil
				}
			}

			log.Warn(ctx, "satellite excluded from run",
				logging.Int("satellite_id", rec.SatelliteID),
				logging.String("constellation", string(cn)),
				logging.String("error", err.Error()),
			)
			p.metrics.RecordSatellite(string(cn), false)
			mu.Lock()
			failures = append(failures, Failure{SatelliteID: rec.SatelliteID, Constellation: cn, Err: err})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(series, func(i, j int) bool { return series[i].SatelliteID < series[j].SatelliteID })
	p.metrics.ObserveStage("generate_series", time.Since(start).Seconds())
	return series, failures, nil
}

func (p *Pipeline) recordStaleness(rec model.TLERecord) {
	age := p.clock.Now().Sub(rec.Epoch)
	if age < 0 {
		age = -age
	}
	if age > p.cfg.StaleEpochAfter {
		p.metrics.RecordStaleTLE(string(rec.Constellation))
	}
}

func (p *Pipeline) aggregate(ctx context.Context, cn model.Constellation, series []model.SatelliteTimeSeries) ([]model.CoverageSnapshot, error) {
	_, span := p.tracer.Start(ctx, "pipeline.aggregate",
		trace.WithAttributes(attribute.String("constellation", string(cn))))
	defer span.End()
	start := time.Now()

	snapshots, err := core.Aggregate(series)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveStage("aggregate", time.Since(start).Seconds())
	return snapshots, nil
}

func (p *Pipeline) selectPool(ctx context.Context, log logging.Logger, cn model.Constellation, cc config.ConstellationConfig, candidates []core.Candidate) (model.SatellitePool, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.select_pool",
		trace.WithAttributes(attribute.String("constellation", string(cn))))
	defer span.End()
	start := time.Now()

	selector := core.NewSelector(cc.Target, p.cfg.Phase, log)
	pool, err := selector.Select(ctx, candidates)
	if err != nil {
		return model.SatellitePool{}, err
	}
	p.metrics.ObserveStage("select_pool", time.Since(start).Seconds())

	if !pool.Compliant {
		log.Warn(ctx, "selected pool does not meet the visible-count band; consider relaxing targets or widening candidates",
			logging.String("constellation", string(cn)),
			logging.Int("pool_size", len(pool.SatelliteIDs)),
			logging.Int("violations", pool.ViolationCount),
		)
	}
	return pool, nil
}

// publish stores results in the KB and refreshes pool gauges.
func (p *Pipeline) publish(cn model.Constellation, series []model.SatelliteTimeSeries, snapshots []model.CoverageSnapshot, pool model.SatellitePool) {
	if p.store != nil {
		for _, s := range series {
			_ = p.store.PutSeries(s)
		}
		p.store.PutSnapshots(cn, snapshots)
		p.store.PutPool(pool)
	}

	minVisible, maxVisible := poolVisibleRange(pool)
	p.metrics.SetPoolStats(string(cn), len(pool.SatelliteIDs), pool.ViolationCount, minVisible, maxVisible)
}

func poolVisibleRange(pool model.SatellitePool) (minVisible, maxVisible int) {
	if len(pool.Snapshots) == 0 {
		return 0, 0
	}
	minVisible, maxVisible = pool.Snapshots[0].VisibleCount, pool.Snapshots[0].VisibleCount
	for _, snap := range pool.Snapshots[1:] {
		if snap.VisibleCount < minVisible {
			minVisible = snap.VisibleCount
		}
		if snap.VisibleCount > maxVisible {
			maxVisible = snap.VisibleCount
		}
	}
	return minVisible, maxVisible
}
