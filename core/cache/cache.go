// Package cache defines the optional store of pipeline outputs keyed by
// canonical feature vector.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"math"

	"github.com/kilianp07/metrotraffic/core/factory"
)

// ErrMiss is returned by Get when no value is stored for the key.
var ErrMiss = errors.New("cache miss")

// Cache stores raw pipeline outputs.
type Cache interface {
	Get(ctx context.Context, key string) (float64, error)
	Set(ctx context.Context, key string, v float64) error
	Close() error
}

// None never stores anything.
type None struct{}

func (None) Get(context.Context, string) (float64, error) { return 0, ErrMiss }
func (None) Set(context.Context, string, float64) error   { return nil }
func (None) Close() error                                 { return nil }

var registry = factory.NewRegistry[Cache]()

// Register adds a cache backend identified by name.
func Register(name string, f factory.Factory[Cache]) error {
	return registry.Register(name, f)
}

// New builds a cache from cfg. An empty type yields None.
func New(cfg factory.ModuleConfig) (Cache, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return None{}, nil
	}
	return registry.Create(cfg)
}

// Encode serializes v as 8 big-endian bytes.
func Encode(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// Decode reverses Encode.
func Decode(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, errors.New("cache: corrupt entry")
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
