package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/internal/eventbus"
)

type countingSink struct {
	mu  sync.Mutex
	ids []string
}

func (c *countingSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, ev.RequestID)
	return nil
}

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.NewTyped[coremetrics.PredictionEvent]()
	sink := &countingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(coremetrics.PredictionEvent{RequestID: "a"})
	bus.Publish(coremetrics.PredictionEvent{RequestID: "b"})

	deadline := time.Now().Add(time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 2 {
		t.Fatalf("expected 2 events got %d", sink.count())
	}
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
}

func TestStartEventCollector_NilInputs(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, nil)
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}
