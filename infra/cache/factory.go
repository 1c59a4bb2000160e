package cache

import (
	"context"

	corecache "github.com/kilianp07/metrotraffic/core/cache"
	"github.com/kilianp07/metrotraffic/core/factory"
)

// init registers the built-in cache backends.
func init() {
	_ = corecache.Register("memory", func(conf map[string]any) (corecache.Cache, error) {
		var c MemoryConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		m, err := NewMemory(context.Background(), c)
		if err != nil {
			return nil, err
		}
		return m, nil
	})

	_ = corecache.Register("redis", func(conf map[string]any) (corecache.Cache, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		r, err := NewRedis(context.Background(), c)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
