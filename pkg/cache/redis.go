package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the cache Service with a Redis instance. Keys are namespaced
// by an optional prefix so several deployments can share one server.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(opts ...RedisOption) (*Redis, error) {
	cfg := &RedisConfig{Port: 6379}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), b, expiration).Err()
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) error {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	return r.client.Del(ctx, prefixed...).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
