package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/metrotraffic/config"
	coremon "github.com/kilianp07/metrotraffic/core/monitoring"
)

func TestNewSentryMonitor_EmptyDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitor_InvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "://bad"}); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}

func TestNewSentryMonitor_Capture(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1", Environment: "test"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("pipeline failed"), map[string]string{"endpoint": "/predict"})
	m.Flush(10 * time.Millisecond)
}

func TestScrubEvent(t *testing.T) {
	ev := &sentry.Event{Request: &sentry.Request{
		URL:     "http://localhost:8000/api/predictions",
		Headers: map[string]string{"Authorization": "Bearer secret", "User-Agent": "curl"},
		Cookies: "session=1",
		Data:    `{"temp": 280}`,
	}}
	out := scrubEvent(ev, nil)
	if _, ok := out.Request.Headers["Authorization"]; ok {
		t.Fatal("authorization header kept")
	}
	if out.Request.Headers["User-Agent"] != "curl" {
		t.Fatal("unrelated header dropped")
	}
	if out.Request.Cookies != "" || out.Request.Data != "" {
		t.Fatalf("cookies or body kept: %+v", out.Request)
	}
	if scrubEvent(&sentry.Event{}, nil) == nil {
		t.Fatal("events without request must be kept")
	}
}
