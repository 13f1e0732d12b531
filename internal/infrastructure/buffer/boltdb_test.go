package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/projecthub/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer", "activity.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_EnqueueBatchRemove(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Minute)

	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "b", Action: domain.ActionTaskCreated}, QueuedAt: base.Add(time.Second)}))
	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "a", Action: domain.ActionProjectCreated}, QueuedAt: base}))
	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{Action: domain.ActionCommentCreated}}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	items, err := store.Batch(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Activity.ID)
	assert.Equal(t, "b", items[1].Activity.ID)

	require.NoError(t, store.Remove(items[0]))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	assert.Error(t, store.Remove(Item{Activity: domain.Activity{ID: "b"}}))
}

func TestStore_EnqueueFillsIdentity(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{Action: domain.ActionTaskDeleted}}))

	items, err := store.Batch(0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].Activity.ID)
	assert.False(t, items[0].Activity.CreatedAt.IsZero())
	assert.False(t, items[0].QueuedAt.IsZero())
}

func TestStore_RequeueMovesToBack(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "first"}, QueuedAt: base}))
	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "second"}, QueuedAt: base.Add(time.Second)}))

	items, err := store.Batch(1)
	require.NoError(t, err)
	first := items[0]
	first.Retries++
	require.NoError(t, store.Requeue(first))

	items, err = store.Batch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Activity.ID)
	assert.Equal(t, "first", items[1].Activity.ID)
	assert.Equal(t, 1, items[1].Retries)
}

func TestStore_Cleanup(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "stale"}, QueuedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{Activity: domain.Activity{ID: "fresh"}}))

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err := store.Batch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].Activity.ID)
}
