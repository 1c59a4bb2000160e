package prediction

import (
	"context"
	"sync/atomic"

	"github.com/kilianp07/metrotraffic/core/model"
)

// MockPipeline returns a deterministic estimate. Fn takes precedence over
// Value when set.
type MockPipeline struct {
	Value  float64
	Fn     func(model.Features) float64
	Err    error
	Ver    string
	calls  atomic.Int64
	closed atomic.Bool
}

// Predict returns Err when configured, otherwise Fn(f) or Value.
func (m *MockPipeline) Predict(ctx context.Context, f model.Features) (float64, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	if m.Fn != nil {
		return m.Fn(f), nil
	}
	return m.Value, nil
}

// Version returns Ver or "mock".
func (m *MockPipeline) Version() string {
	if m.Ver == "" {
		return "mock"
	}
	return m.Ver
}

// Close marks the pipeline closed.
func (m *MockPipeline) Close() error {
	m.closed.Store(true)
	return nil
}

// Calls reports how many times Predict ran.
func (m *MockPipeline) Calls() int { return int(m.calls.Load()) }

// Closed reports whether Close was called.
func (m *MockPipeline) Closed() bool { return m.closed.Load() }
