package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordSatelliteCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}

	collector.RecordSatellite("starlink", true)
	collector.RecordSatellite("starlink", true)
	collector.RecordSatellite("starlink", false)

	if got := testutil.ToFloat64(collector.SatellitesProcessed.WithLabelValues("starlink", "ok")); got != 2 {
		t.Fatalf("processed ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SatellitesProcessed.WithLabelValues("starlink", "error")); got != 1 {
		t.Fatalf("processed error = %v, want 1", got)
	}
}

func TestObserveStageRecordsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}

	collector.ObserveStage("propagation", 0.42)
	collector.ObserveStage("propagation", 1.2)

	if count := histogramSampleCount(t, reg, "pipeline_stage_duration_seconds", map[string]string{
		"stage": "propagation",
	}); count != 2 {
		t.Fatalf("stage duration sample_count = %d, want 2", count)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var collector *PipelineCollector
	collector.RecordSatellite("starlink", true)
	collector.RecordStaleTLE("oneweb")
	collector.ObserveStage("aggregation", 0.1)
	collector.SetPoolStats("starlink", 12, 0, 10, 15)
}

func TestMetricsHandlerExposesPoolGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}
	collector.SetPoolStats("starlink", 12, 3, 10, 15)
	collector.RecordStaleTLE("starlink")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"pipeline_pool_size",
		"pipeline_pool_violations",
		"pipeline_min_visible",
		"pipeline_max_visible",
		"pipeline_stale_tles_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestDoubleRegistrationReturnsExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("first NewPipelineCollector: %v", err)
	}
	second, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("second NewPipelineCollector: %v", err)
	}
	if first.SatellitesProcessed != second.SatellitesProcessed {
		t.Fatalf("expected re-registration to reuse the existing counter vec")
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
