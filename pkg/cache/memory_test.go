package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryRoundtrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, m.Set(ctx, "k", payload{Name: "aapl", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, m.Get(ctx, "k", &got))
	require.Equal(t, "aapl", got.Name)
	require.Equal(t, 3, got.Count)
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	var got string
	require.ErrorIs(t, m.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var got string
	require.ErrorIs(t, m.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	var got string
	require.ErrorIs(t, m.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestLayeredFallsBackToRemote(t *testing.T) {
	local, remote := NewMemory(), NewMemory()
	l := NewLayered(local, remote)
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", "v", time.Minute))

	var got string
	require.NoError(t, l.Get(ctx, "k", &got))
	require.Equal(t, "v", got)

	// The read must have filled the local layer.
	var local2 string
	require.NoError(t, local.Get(ctx, "k", &local2))
}
