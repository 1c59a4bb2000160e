package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/kilianp07/metrotraffic/core/model"
)

func TestMockPipeline_Value(t *testing.T) {
	m := &MockPipeline{Value: 1234.5}
	v, err := m.Predict(context.Background(), model.DefaultFeatures())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if v != 1234.5 {
		t.Fatalf("expected configured value got %v", v)
	}
	if m.Calls() != 1 {
		t.Fatalf("expected 1 call got %d", m.Calls())
	}
	if m.Version() != "mock" {
		t.Fatalf("unexpected version %s", m.Version())
	}
}

func TestMockPipeline_FnAndErr(t *testing.T) {
	m := &MockPipeline{Fn: func(f model.Features) float64 { return float64(f.Hour * 100) }}
	f := model.DefaultFeatures()
	f.Hour = 17
	if v, _ := m.Predict(context.Background(), f); v != 1700 {
		t.Fatalf("fn not used: %v", v)
	}
	m.Err = ErrInvalidInput
	if _, err := m.Predict(context.Background(), f); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestMockPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &MockPipeline{Value: 1}
	if _, err := m.Predict(ctx, model.DefaultFeatures()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	if err := RegisterPipeline("test-mock", func(map[string]any) (Pipeline, error) {
		return &MockPipeline{Value: 1}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	found := false
	for _, n := range Backends() {
		if n == "test-mock" {
			found = true
		}
	}
	if !found {
		t.Fatalf("backend not listed: %v", Backends())
	}
}
