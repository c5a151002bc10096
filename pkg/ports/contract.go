package ports

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

// RunDeviceStoreContract runs a suite of tests to verify that a DeviceStore
// implementation adheres to the interface contract.
// newStore must return an empty store on each call.
func RunDeviceStoreContract(t *testing.T, newStore func(t *testing.T) DeviceStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		store := newStore(t)

		stored, err := store.SaveIfAbsent(ctx, "dev_first")
		require.NoError(t, err, "SaveIfAbsent should not return error")
		assert.Equal(t, "dev_first", stored)

		loaded, err := store.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "dev_first", loaded)
	})

	t.Run("Write Once", func(t *testing.T) {
		store := newStore(t)

		_, err := store.SaveIfAbsent(ctx, "dev_first")
		require.NoError(t, err)

		stored, err := store.SaveIfAbsent(ctx, "dev_second")
		require.NoError(t, err)
		assert.Equal(t, "dev_first", stored, "an existing id must win")

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dev_first", loaded)
	})

	t.Run("Concurrent First Write", func(t *testing.T) {
		store := newStore(t)

		const writers = 8
		results := make([]string, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := store.SaveIfAbsent(ctx, "dev_"+string(rune('a'+i)))
				assert.NoError(t, err)
				results[i] = id
			}(i)
		}
		wg.Wait()

		for _, id := range results {
			assert.Equal(t, results[0], id, "all writers must agree on the stored id")
		}
	})
}
