package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDedupStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new delivery as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-1", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new delivery should return true")
	})

	t.Run("returns false for already processed delivery", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "delivery-2", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "delivery-2", 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "already processed delivery should return false")
	})

	t.Run("allows reprocessing after expiration", func(t *testing.T) {
		ttl := 10 * time.Millisecond

		isNew, err := store.MarkProcessed(ctx, "delivery-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, "delivery-3", ttl)
		require.NoError(t, err)
		assert.True(t, isNew, "expired delivery should be reprocessable")
	})
}

func TestInMemoryDedupStore_Release(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "delivery-4", 1*time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, store.Release(ctx, "delivery-4"))

	// released delivery can be marked again immediately
	isNew, err = store.MarkProcessed(ctx, "delivery-4", 1*time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestInMemoryDedupStore_ConcurrentMarks(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()
	const workers = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	newCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, "contested-delivery", 1*time.Hour)
			require.NoError(t, err)
			if isNew {
				mu.Lock()
				newCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, newCount, "exactly one goroutine should win the mark")
}

func TestInMemoryDedupStore_Close(t *testing.T) {
	store := NewInMemoryDedupStore()

	assert.NoError(t, store.Close())
	// Close is idempotent
	assert.NoError(t, store.Close())
}

func TestInMemoryDedupStore_Size(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()
	assert.Equal(t, 0, store.Size())

	_, err := store.MarkProcessed(ctx, "a", time.Hour)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "b", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Size())
}
