package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_BatchOrderFollowsPriorityThenTime(t *testing.T) {
	store := openStore(t)
	base := time.Now()

	require.NoError(t, store.Enqueue(Item{ID: "late", Entity: EntityDocument, Priority: 3, Timestamp: base.Add(time.Second)}))
	require.NoError(t, store.Enqueue(Item{ID: "early", Entity: EntityDocument, Priority: 3, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "urgent", Entity: EntityUser, Priority: 1, Timestamp: base.Add(time.Hour)}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"urgent", "early", "late"}, ids)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestStore_RemoveAndRequeue(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityDocument}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Priority)

	item := items[0]
	require.NoError(t, store.Remove(item))
	item.Retries++
	require.NoError(t, store.Requeue(item))

	items, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)

	require.NoError(t, store.Remove(Item{ID: "a"}))
	size, _ := store.Size()
	assert.Zero(t, size)
}

func TestStore_Cleanup(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Enqueue(Item{ID: "old", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "new"}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))
	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
}

func TestStore_CoalescesWritesPerTarget(t *testing.T) {
	store := openStore(t)
	base := time.Now()
	target := DocumentTarget("match", "m1")

	require.NoError(t, store.Enqueue(Item{ID: "v1", Entity: EntityDocument, Kind: "match", Target: target, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "other", Entity: EntityDocument, Kind: "deal", Target: DocumentTarget("deal", "d1"), Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "v2", Entity: EntityDocument, Kind: "match", Target: target, Timestamp: base.Add(time.Second)}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.ElementsMatch(t, []string{"other", "v2"}, ids)
	assert.True(t, store.Pending(target))
	assert.False(t, store.Pending(DocumentTarget("match", "m2")))

	counts, err := store.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"match": 1, "deal": 1}, counts)
}

func TestStore_RequeueYieldsToNewerWrite(t *testing.T) {
	store := openStore(t)
	target := UserTarget("u1")
	require.NoError(t, store.Enqueue(Item{ID: "stale", Entity: EntityUser, Target: target}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	failed := items[0]
	require.NoError(t, store.Remove(failed))

	require.NoError(t, store.Enqueue(Item{ID: "fresh", Entity: EntityUser, Target: target}))
	failed.Retries++
	require.NoError(t, store.Requeue(failed))

	items, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)

	require.NoError(t, store.Remove(items[0]))
	require.NoError(t, store.Requeue(failed))
	items, _ = store.GetBatch(10)
	require.Len(t, items, 1)
	assert.Equal(t, "stale", items[0].ID)
}

func TestStore_NilIsClosed(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(Item{}))
	assert.NoError(t, store.Close())
}
