package cache

import (
	"context"
	"errors"
	"time"
)

// Layered chains a fast local cache in front of a remote one. Reads fill the
// local layer on a remote hit; writes and deletes go to both layers.
type Layered struct {
	local  Service
	remote Service
}

// NewLayered builds a two-layer cache. Both layers are required.
func NewLayered(local, remote Service) *Layered {
	return &Layered{local: local, remote: remote}
}

func (l *Layered) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := l.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return l.local.Set(ctx, key, value, expiration)
}

func (l *Layered) Get(ctx context.Context, key string, dest interface{}) error {
	if err := l.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := l.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	// best effort backfill, the remote TTL is authoritative
	_ = l.local.Set(ctx, key, dest, time.Minute)
	return nil
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	return errors.Join(
		l.local.Delete(ctx, keys...),
		l.remote.Delete(ctx, keys...),
	)
}
