// Package audit persists one record per prediction request so operators can
// review what the service answered.
package audit

import (
	"context"
	"time"

	"github.com/kilianp07/metrotraffic/core/factory"
	"github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/model"
)

// Record captures one prediction request and its result.
type Record struct {
	RequestID    string          `json:"request_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Features     model.Features  `json:"features"`
	Volume       int             `json:"predicted_traffic_volume"`
	ModelVersion string          `json:"model_version"`
	Outcome      metrics.Outcome `json:"outcome"`
	Error        string          `json:"error,omitempty"`
	LatencyMS    float64         `json:"latency_ms"`
	CacheHit     bool            `json:"cache_hit"`
}

// FromEvent converts a bus event into a Record.
func FromEvent(ev metrics.PredictionEvent) Record {
	return Record{
		RequestID:    ev.RequestID,
		Timestamp:    ev.Time,
		Features:     ev.Features,
		Volume:       ev.Volume,
		ModelVersion: ev.ModelVersion,
		Outcome:      ev.Outcome,
		Error:        ev.Error,
		LatencyMS:    float64(ev.Latency.Microseconds()) / 1000,
		CacheHit:     ev.CacheHit,
	}
}

// Query filters records. Zero values disable a filter. When Limit is set only
// the most recent Limit matches are returned.
type Query struct {
	Start   time.Time
	End     time.Time
	Outcome metrics.Outcome
	Limit   int
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

// tail applies the limit to chronologically ordered records.
func (q Query) tail(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists Records and supports querying them in chronological order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

var registry = factory.NewRegistry[Store]()

// Register adds a store backend identified by name.
func Register(name string, f factory.Factory[Store]) error {
	return registry.Register(name, f)
}

// New creates a store from cfg. An empty type disables auditing.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return NopStore{}, nil
	}
	return registry.Create(cfg)
}
