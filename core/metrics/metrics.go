package metrics

import (
	"time"

	"github.com/kilianp07/metrotraffic/core/model"
)

// Outcome classifies how a prediction request ended.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// PredictionEvent is emitted once per prediction attempt.
type PredictionEvent struct {
	RequestID    string         `json:"request_id"`
	Features     model.Features `json:"features"`
	Volume       int            `json:"predicted_traffic_volume"`
	Raw          float64        `json:"raw"`
	ModelVersion string         `json:"model_version"`
	Outcome      Outcome        `json:"outcome"`
	Error        string         `json:"error,omitempty"`
	Latency      time.Duration  `json:"latency_ns"`
	CacheHit     bool           `json:"cache_hit"`
	Time         time.Time      `json:"time"`
}

// MetricsSink records prediction events for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// ModelStateRecorder is implemented by sinks exposing whether a pipeline is
// loaded.
type ModelStateRecorder interface {
	RecordModelState(loaded bool, version string) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordModelState(bool, string) error    { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to every sink and returns the first
// error encountered. All sinks receive the event even when one fails.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordModelState forwards to sinks implementing ModelStateRecorder.
func (m *MultiSink) RecordModelState(loaded bool, version string) error {
	var first error
	for _, s := range m.Sinks {
		if r, ok := s.(ModelStateRecorder); ok {
			if err := r.RecordModelState(loaded, version); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
