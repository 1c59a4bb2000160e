package monitoring

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor keeps the
// current one.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags. Requests canceled
// by the caller are not reported.
func CaptureException(err error, tags map[string]string) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	get().CaptureException(err, tags)
}

// CaptureRequest reports a failed HTTP request tagged with its route and
// status code.
func CaptureRequest(err error, method, path string, status int) {
	CaptureException(err, map[string]string{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	})
}

// Recover reports a panic to the monitor, flushes it and panics again. It
// must be deferred directly: defer monitoring.Recover().
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	m := get()
	m.CapturePanic(r)
	m.Flush(2 * time.Second)
	panic(r)
}

// Flush flushes buffered events.
func Flush(d time.Duration) { get().Flush(d) }
