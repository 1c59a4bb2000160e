package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/metrotraffic/config"
	coremon "github.com/kilianp07/metrotraffic/core/monitoring"
)

// sensitiveHeaders never leave the process with an event.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN disables reporting.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return nil, err
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("service", "traffic-api")
	})
	return &sentryMonitor{}, nil
}

// scrubEvent drops credentials and request bodies, which carry the raw
// feature payloads, from outgoing events.
func scrubEvent(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if ev == nil || ev.Request == nil {
		return ev
	}
	for _, h := range sensitiveHeaders {
		delete(ev.Request.Headers, h)
	}
	ev.Request.Cookies = ""
	ev.Request.Data = ""
	return ev
}

type sentryMonitor struct{}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) CapturePanic(v any) {
	sentry.CurrentHub().Recover(v)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
