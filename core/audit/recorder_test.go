package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/infra/logger"
	"github.com/kilianp07/metrotraffic/internal/eventbus"
)

func TestStartRecorder(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	bus := eventbus.NewTyped[metrics.PredictionEvent]()
	done := StartRecorder(context.Background(), bus, store, logger.NopLogger{})

	bus.Publish(metrics.PredictionEvent{RequestID: "a", Outcome: metrics.OutcomeOK, Time: time.Now()})
	bus.Publish(metrics.PredictionEvent{RequestID: "b", Outcome: metrics.OutcomeError, Error: "boom", Time: time.Now()})

	require.Eventually(t, func() bool {
		recs, err := store.Query(context.Background(), Query{})
		return err == nil && len(recs) == 2
	}, time.Second, 10*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}
