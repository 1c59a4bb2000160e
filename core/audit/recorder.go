package audit

import (
	"context"
	"time"

	"github.com/kilianp07/metrotraffic/core/logger"
	"github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/monitoring"
	"github.com/kilianp07/metrotraffic/internal/eventbus"
)

// StartRecorder appends every event published on bus to store until ctx is
// canceled or the bus is closed. Write failures are logged and dropped.
func StartRecorder(ctx context.Context, bus *eventbus.TypedBus[metrics.PredictionEvent], store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
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
				wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := store.Append(wctx, FromEvent(ev)); err != nil && log != nil {
					log.Warnf("audit append %s: %v", ev.RequestID, err)
				}
				cancel()
			}
		}
	}()
	return done
}
