package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
)

func TestPromSink_RecordPrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	ok := coremetrics.PredictionEvent{Outcome: coremetrics.OutcomeOK, Volume: 4200, Latency: 3 * time.Millisecond}
	bad := coremetrics.PredictionEvent{Outcome: coremetrics.OutcomeInvalid, Latency: time.Millisecond}
	for _, ev := range []coremetrics.PredictionEvent{ok, ok, bad} {
		if err := sink.RecordPrediction(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	expected := `
# HELP traffic_predictions_total Total number of prediction requests by outcome
# TYPE traffic_predictions_total counter
traffic_predictions_total{cache_hit="false",outcome="invalid"} 1
traffic_predictions_total{cache_hit="false",outcome="ok"} 2
`
	if err := testutil.CollectAndCompare(sink.requests, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 2 {
		t.Errorf("expected 2 latency series, got %d", c)
	}
	if c := testutil.CollectAndCount(sink.volume); c != 1 {
		t.Errorf("volume histogram not recorded")
	}
}

func TestPromSink_RecordModelState(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordModelState(true, "1.0.0"); err != nil {
		t.Fatalf("state: %v", err)
	}
	if v := testutil.ToFloat64(sink.loaded.WithLabelValues("1.0.0")); v != 1 {
		t.Fatalf("expected gauge 1 got %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.requests != second.requests {
		t.Fatalf("expected shared counter vec")
	}
}
