package ports

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAdapterContract runs a suite of tests to verify that an Adapter implementation
// adheres to the defined interface contract.
// first and second must be distinct context values that survive the adapter's serialization unchanged.
func RunAdapterContract[C any](t *testing.T, adapter Adapter[C], first, second C) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, found, err := adapter.Load(ctx, prefix+"-missing")
		require.NoError(t, err, "Load of a missing id must not fail")
		assert.False(t, found)
	})

	t.Run("Create and Load", func(t *testing.T) {
		id := prefix + "-create"
		created, err := adapter.Create(ctx, id, "start", first)
		require.NoError(t, err)

		assert.Equal(t, id, created.ID)
		assert.Equal(t, "start", created.State)
		assert.Equal(t, first, created.Context)
		assert.Equal(t, int64(1), created.Version)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt), "Create must set both timestamps to the same instant")

		loaded, found, err := adapter.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.State, loaded.State)
		assert.Equal(t, first, loaded.Context)
		assert.Equal(t, created.Version, loaded.Version)
		assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt must round-trip")
		assert.True(t, created.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt must round-trip")
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		id := prefix + "-dup"
		_, err := adapter.Create(ctx, id, "start", first)
		require.NoError(t, err)

		_, err = adapter.Create(ctx, id, "other", second)
		assert.ErrorIs(t, err, domain.ErrSnapshotExists)

		loaded, found, err := adapter.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "start", loaded.State, "the first record must survive a duplicate Create")
		assert.Equal(t, first, loaded.Context)
	})

	t.Run("Save Next Version", func(t *testing.T) {
		id := prefix + "-save"
		created, err := adapter.Create(ctx, id, "start", first)
		require.NoError(t, err)

		next := created.Next("middle", second, created.UpdatedAt.Add(time.Second))
		require.NoError(t, adapter.Save(ctx, next))

		loaded, found, err := adapter.Load(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "middle", loaded.State)
		assert.Equal(t, second, loaded.Context)
		assert.Equal(t, int64(2), loaded.Version)
		assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt must not change on Save")
		assert.True(t, next.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Stale Version", func(t *testing.T) {
		id := prefix + "-stale"
		created, err := adapter.Create(ctx, id, "start", first)
		require.NoError(t, err)

		winner := created.Next("a", first, created.UpdatedAt)
		loser := created.Next("b", second, created.UpdatedAt)
		require.NoError(t, adapter.Save(ctx, winner))

		err = adapter.Save(ctx, loser)
		require.ErrorIs(t, err, domain.ErrConflict)
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, id, conflict.ID)
		assert.Equal(t, int64(1), conflict.Expected)
		assert.Equal(t, int64(2), conflict.Actual)

		loaded, _, err := adapter.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "a", loaded.State, "a rejected Save must not overwrite the record")
	})

	t.Run("Save Missing", func(t *testing.T) {
		ghost := domain.NewSnapshot(prefix+"-ghost", "start", first, time.Now()).Next("next", first, time.Now())
		err := adapter.Save(ctx, ghost)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Concurrent Create", func(t *testing.T) {
		id := prefix + "-race"
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := adapter.Create(ctx, id, fmt.Sprintf("s%d", n), first)
				if err == nil {
					wins.Add(1)
					return
				}
				assert.ErrorIs(t, err, domain.ErrSnapshotExists)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent Create must win")
	})

	if lister, ok := adapter.(Lister); ok {
		t.Run("List", func(t *testing.T) {
			id1 := prefix + "-list-1"
			id2 := prefix + "-list-2"
			_, err := adapter.Create(ctx, id1, "start", first)
			require.NoError(t, err)
			_, err = adapter.Create(ctx, id2, "start", first)
			require.NoError(t, err)

			ids, err := lister.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, id1)
			assert.Contains(t, ids, id2)
		})
	}

	if deleter, ok := adapter.(Deleter); ok {
		t.Run("Delete", func(t *testing.T) {
			id := prefix + "-delete"
			_, err := adapter.Create(ctx, id, "start", first)
			require.NoError(t, err)

			require.NoError(t, deleter.Delete(ctx, id))
			_, found, err := adapter.Load(ctx, id)
			require.NoError(t, err)
			assert.False(t, found, "Load after Delete must report not found")

			assert.NoError(t, deleter.Delete(ctx, id), "deleting a missing id is not an error")

			_, err = adapter.Create(ctx, id, "start", first)
			assert.NoError(t, err, "a deleted id can be created again")
		})
	}
}
