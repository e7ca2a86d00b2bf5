package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/docstore"
)

// RunStoreContract exercises the behaviour every docstore backend must share.
// collection should be unique per run for backends that persist data.
func RunStoreContract(t *testing.T, store docstore.Store, collection string) {
	t.Helper()
	ctx := context.Background()

	t.Run("merge upsert preserves absent fields", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, collection, "a", docstore.Document{
			"userId": "u1", "available": true, "latitude": 21.5,
		}))
		require.NoError(t, store.Set(ctx, collection, "a", docstore.Document{"available": false}))

		doc, err := store.Get(ctx, collection, "a")
		require.NoError(t, err)
		assert.Equal(t, "a", doc.String("id"))
		assert.Equal(t, "u1", doc.String("userId"))
		assert.False(t, doc.Bool("available"))
		lat, err := doc.Float("latitude")
		require.NoError(t, err)
		assert.InDelta(t, 21.5, lat, 1e-9)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		_, err := store.Get(ctx, collection, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("where filters on equality", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, collection, "b", docstore.Document{"userId": "u2"}))
		require.NoError(t, store.Set(ctx, collection, "c", docstore.Document{"userId": "u1"}))

		docs, err := store.Where(ctx, collection, "userId", "u1")
		require.NoError(t, err)
		ids := idsOf(docs)
		assert.ElementsMatch(t, []string{"a", "c"}, ids)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, collection, "b"))
		require.NoError(t, store.Delete(ctx, collection, "b"))

		docs, err := store.All(ctx, collection)
		require.NoError(t, err)
		assert.NotContains(t, idsOf(docs), "b")
	})

	t.Run("watch delivers current state then changes", func(t *testing.T) {
		w, err := store.Watch(ctx, collection)
		require.NoError(t, err)
		defer w.Stop()

		first := nextWithin(t, w, 5*time.Second)
		assert.ElementsMatch(t, []string{"a", "c"}, idsOf(first.Docs))

		require.NoError(t, store.Set(ctx, collection, "d", docstore.Document{"userId": "u3"}))
		// Backends may deliver intermediate snapshots before the write lands
		deadline := time.Now().Add(10 * time.Second)
		for {
			snap := nextWithin(t, w, 5*time.Second)
			if contains(idsOf(snap.Docs), "d") {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("write to d never reached the watcher")
			}
		}
	})

	t.Run("next after stop reports stopped", func(t *testing.T) {
		w, err := store.Watch(ctx, collection)
		require.NoError(t, err)
		_ = nextWithin(t, w, 5*time.Second)
		w.Stop()

		_, err = w.Next()
		assert.ErrorIs(t, err, docstore.ErrWatchStopped)
	})
}

func nextWithin(t *testing.T, w docstore.Watcher, d time.Duration) docstore.Snapshot {
	t.Helper()
	type result struct {
		snap docstore.Snapshot
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		snap, err := w.Next()
		ch <- result{snap, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.snap
	case <-time.After(d):
		t.Fatalf("watcher produced no snapshot within %s", d)
		return docstore.Snapshot{}
	}
}

func idsOf(docs []docstore.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.String("id"))
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
