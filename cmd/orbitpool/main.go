// Command orbitpool runs one batch of the orbital-visibility pipeline: it
// loads the dated TLE files, computes full-period visibility time series for
// every satellite, selects the per-constellation satellite pools, and writes
// the JSON artifacts.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/signalsfoundry/orbitpool/config"
	"github.com/signalsfoundry/orbitpool/internal/logging"
	"github.com/signalsfoundry/orbitpool/internal/observability"
	"github.com/signalsfoundry/orbitpool/kb"
	"github.com/signalsfoundry/orbitpool/model"
	"github.com/signalsfoundry/orbitpool/pipeline"
	"github.com/signalsfoundry/orbitpool/tle"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file (defaults apply when empty)")
	date := flag.String("date", time.Now().UTC().Format("20060102"), "TLE file date, YYYYMMDD")
	tleDir := flag.String("tle-dir", "", "Directory holding <constellation>_<date>.tle files (overrides config)")
	outDir := flag.String("out", "", "Directory for JSON artifacts (overrides config)")
	workers := flag.Int("workers", 0, "Parallel satellite workers (overrides config)")
	strict := flag.Bool("strict", false, "Reject stale TLEs instead of warning")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", logging.String("path", *configPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *tleDir != "" {
		cfg.TLEDir = *tleDir
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *strict {
		cfg.Strict = true
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewPipelineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	records, err := loadRecords(cfg, *date)
	if err != nil {
		log.Error(ctx, "failed to load TLE data",
			logging.String("dir", cfg.TLEDir),
			logging.String("date", *date),
			logging.String("error", err.Error()))
		os.Exit(1)
	}

	store := kb.NewKnowledgeBase()
	p, err := pipeline.New(cfg, nil, store, collector, log)
	if err != nil {
		log.Error(ctx, "invalid pipeline configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	res, err := p.Run(ctx, records)
	if err != nil {
		log.Error(ctx, "pipeline run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if err := pipeline.WriteArtifacts(cfg.OutDir, res); err != nil {
		log.Error(ctx, "failed to write artifacts", logging.String("dir", cfg.OutDir), logging.String("error", err.Error()))
		os.Exit(1)
	}

	for cn, pool := range res.Pools {
		log.Info(ctx, "pool selected",
			logging.String("constellation", string(cn)),
			logging.Int("pool_size", len(pool.SatelliteIDs)),
			logging.Int("violations", pool.ViolationCount),
			logging.Any("compliant", pool.Compliant),
		)
	}
	log.Info(ctx, "artifacts written", logging.String("dir", cfg.OutDir), logging.Int("satellites", len(records)))

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Config{}, err
	}
	defer f.Close()
	return config.Load(f)
}

// loadRecords reads the dated TLE file of every configured constellation.
// A missing file for one constellation fails the whole run: partial input
// would silently shrink the candidate sets.
func loadRecords(cfg config.Config, date string) ([]model.TLERecord, error) {
	constellations := make([]model.Constellation, 0, len(cfg.Constellations))
	for cn := range cfg.Constellations {
		constellations = append(constellations, cn)
	}
	sort.Slice(constellations, func(i, j int) bool { return constellations[i] < constellations[j] })

	var records []model.TLERecord
	for _, cn := range constellations {
		recs, err := tle.Load(cfg.TLEDir, cn, date)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
