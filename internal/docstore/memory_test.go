package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/testutil"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := docstore.NewMemoryStore()
	defer store.Close()

	testutil.RunStoreContract(t, store, "parkingSpots")
}

func TestMemoryStore_ReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	require.NoError(t, store.Set(ctx, "c", "x", docstore.Document{"name": "before"}))
	doc, err := store.Get(ctx, "c", "x")
	require.NoError(t, err)
	doc["name"] = "mutated"

	again, err := store.Get(ctx, "c", "x")
	require.NoError(t, err)
	assert.Equal(t, "before", again.String("name"))
}

func TestMemoryStore_Failure(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	boom := errors.New("network down")

	store.SetFailure(boom)
	assert.ErrorIs(t, store.Set(ctx, "c", "x", docstore.Document{}), boom)
	_, err := store.All(ctx, "c")
	assert.ErrorIs(t, err, boom)
	_, err = store.Watch(ctx, "c")
	assert.ErrorIs(t, err, boom)

	store.SetFailure(nil)
	assert.NoError(t, store.Set(ctx, "c", "x", docstore.Document{}))
}

func TestMemoryStore_StopReleasesWatcher(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	w, err := store.Watch(ctx, "parkingSpots")
	require.NoError(t, err)
	assert.Equal(t, 1, store.WatcherCount("parkingSpots"))

	w.Stop()
	w.Stop()
	assert.Equal(t, 0, store.WatcherCount("parkingSpots"))
}

func TestMemoryStore_CancelledContextEndsWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := docstore.NewMemoryStore()

	w, err := store.Watch(ctx, "parkingSpots")
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Next()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Next()
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, docstore.ErrWatchStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after cancel")
	}
}

func TestMemoryStore_BurstCollapsesIntoLatestState(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	w, err := store.Watch(ctx, "parkingSpots")
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Next()
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, "parkingSpots", id, docstore.Document{"available": true}))
	}

	snap, err := w.Next()
	require.NoError(t, err)
	assert.Len(t, snap.Docs, 3)
}
