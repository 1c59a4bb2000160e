package cache

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"

	corecache "github.com/kilianp07/metrotraffic/core/cache"
)

// MemoryConfig sizes the in-process cache.
type MemoryConfig struct {
	TTLSeconds int `json:"ttl_seconds"`
	MaxSizeMB  int `json:"max_size_mb"`
	Shards     int `json:"shards"`
}

// Memory keeps predictions in a bigcache instance.
type Memory struct {
	bc *bigcache.BigCache
}

// NewMemory creates an in-process cache.
func NewMemory(ctx context.Context, cfg MemoryConfig) (*Memory, error) {
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = 300
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 64
	}
	bcfg := bigcache.DefaultConfig(time.Duration(cfg.TTLSeconds) * time.Second)
	bcfg.Shards = cfg.Shards
	bcfg.HardMaxCacheSize = cfg.MaxSizeMB
	bcfg.MaxEntrySize = 8
	bcfg.CleanWindow = time.Minute
	bcfg.Verbose = false
	bc, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return &Memory{bc: bc}, nil
}

func (m *Memory) Get(_ context.Context, key string) (float64, error) {
	b, err := m.bc.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return 0, corecache.ErrMiss
	}
	if err != nil {
		return 0, err
	}
	return corecache.Decode(b)
}

func (m *Memory) Set(_ context.Context, key string, v float64) error {
	return m.bc.Set(key, corecache.Encode(v))
}

// Len returns the number of stored entries.
func (m *Memory) Len() int { return m.bc.Len() }

func (m *Memory) Close() error { return m.bc.Close() }
