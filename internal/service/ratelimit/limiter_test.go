package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	require.True(t, l.Allow("k", 2, 0.001))
	require.True(t, l.Allow("k", 2, 0.001))
	require.False(t, l.Allow("k", 2, 0.001))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	require.True(t, l.Allow("a", 1, 0.001))
	require.False(t, l.Allow("a", 1, 0.001))
	require.True(t, l.Allow("b", 1, 0.001))
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	require.True(t, l.Allow("k", 1, 0.0001))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "k", 1, 0.0001)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitRefills(t *testing.T) {
	l := New()
	require.True(t, l.Allow("k", 1, 50)) // refills in ~20ms

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "k", 1, 50))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}
