package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/monitoring"
	"github.com/kilianp07/metrotraffic/infra/logger"
	"github.com/kilianp07/metrotraffic/internal/eventbus"
)

// StartEventCollector subscribes to the prediction bus and records every
// event in sink. The returned channel is closed once the collector stops,
// which happens when ctx is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.PredictionEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		defer monitoring.Recover()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordPrediction(ev); err != nil {
					log.Warnf("record prediction %s: %v", ev.RequestID, err)
				}
			}
		}
	}()
	return done
}
