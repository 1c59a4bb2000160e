package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	corecache "github.com/kilianp07/metrotraffic/core/cache"
)

// RedisConfig points at a shared Redis instance.
type RedisConfig struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// Redis shares cached predictions between service replicas.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis cache: addr is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "traffic:prediction:"
	}
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = 300
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client, prefix: cfg.Prefix, ttl: time.Duration(cfg.TTLSeconds) * time.Second}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (float64, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, corecache.ErrMiss
	}
	if err != nil {
		return 0, err
	}
	return corecache.Decode(b)
}

func (r *Redis) Set(ctx context.Context, key string, v float64) error {
	return r.client.Set(ctx, r.prefix+key, corecache.Encode(v), r.ttl).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
