package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiredReadsAsAbsent(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 5*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IncrementCreatesFixedWindow(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	count, reset1, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, reset2, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The window stays anchored to the first hit: the reset time must not
	// move forward on subsequent increments.
	assert.Equal(t, reset1, reset2)
}

func TestMemoryStore_IncrementAfterWindowStartsFresh(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	_, _, err := m.Increment(ctx, "c", 5*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	count, _, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_DecrementFloorsAtZero(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	_, _, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)

	require.NoError(t, m.Decrement(ctx, "c"))
	require.NoError(t, m.Decrement(ctx, "c"))
	require.NoError(t, m.Decrement(ctx, "c"))

	count, _, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_DecrementMissingKeyIsNoop(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()

	assert.NoError(t, m.Decrement(context.Background(), "ghost"))
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	m := NewMemoryStore(0)
	defer m.Stop()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _, _ = m.Increment(ctx, "c", time.Minute)
		}()
	}
	wg.Wait()

	count, _, err := m.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), count)
}

func TestMemoryStore_JanitorSweepsExpired(t *testing.T) {
	m := NewMemoryStore(10 * time.Millisecond)
	defer m.Stop()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 5*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	m.mu.RLock()
	_, present := m.entries["k"]
	m.mu.RUnlock()
	assert.False(t, present, "janitor should have removed the expired entry")
}
