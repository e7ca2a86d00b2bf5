package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

// MemoryStore keeps collections in process. It is the synchronous test
// double for the remote store and backs PARKSPOT_REMOTE=memory for local
// development. Watchers always read the collection at delivery time, so a
// late Next never returns stale state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	watchers    map[string]map[*memoryWatcher]struct{}
	failure     error
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		watchers:    make(map[string]map[*memoryWatcher]struct{}),
		now:         time.Now,
	}
}

// SetFailure makes every subsequent operation fail with err until cleared
// with SetFailure(nil). Watchers already running are unaffected.
func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("document id is required")
	}

	s.mu.Lock()
	if s.failure != nil {
		s.mu.Unlock()
		return s.failure
	}
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]Document)
		s.collections[collection] = docs
	}
	docs[id] = withID(docs[id].Merge(fields), id)
	watchers := s.watchersLocked(collection)
	s.mu.Unlock()

	notify(watchers)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) All(ctx context.Context, collection string) ([]Document, error) {
	return s.filter(ctx, collection, func(Document) bool { return true })
}

func (s *MemoryStore) Where(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	return s.filter(ctx, collection, func(d Document) bool {
		v, ok := d[field]
		return ok && v == value
	})
}

func (s *MemoryStore) filter(ctx context.Context, collection string, keep func(Document) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	return s.snapshotLocked(collection, keep), nil
}

func (s *MemoryStore) snapshotLocked(collection string, keep func(Document) bool) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for _, d := range s.collections[collection] {
		if keep(d) {
			docs = append(docs, d.Clone())
		}
	}
	SortByID(docs)
	return docs
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.failure != nil {
		s.mu.Unlock()
		return s.failure
	}
	_, existed := s.collections[collection][id]
	delete(s.collections[collection], id)
	watchers := s.watchersLocked(collection)
	s.mu.Unlock()

	if existed {
		notify(watchers)
	}
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, collection string) (Watcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return nil, s.failure
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &memoryWatcher{
		store:      s,
		collection: collection,
		ctx:        ctx,
		cancel:     cancel,
		signal:     make(chan struct{}, 1),
	}
	// The first Next delivers the current state.
	w.signal <- struct{}{}

	if s.watchers[collection] == nil {
		s.watchers[collection] = make(map[*memoryWatcher]struct{})
	}
	s.watchers[collection][w] = struct{}{}
	return w, nil
}

// WatcherCount reports live watchers on a collection (leak checks in tests).
func (s *MemoryStore) WatcherCount(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers[collection])
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	var all []*memoryWatcher
	for _, set := range s.watchers {
		for w := range set {
			all = append(all, w)
		}
	}
	s.mu.Unlock()

	for _, w := range all {
		w.Stop()
	}
	return nil
}

func (s *MemoryStore) watchersLocked(collection string) []*memoryWatcher {
	out := make([]*memoryWatcher, 0, len(s.watchers[collection]))
	for w := range s.watchers[collection] {
		out = append(out, w)
	}
	return out
}

func (s *MemoryStore) removeWatcher(w *memoryWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers[w.collection], w)
}

func notify(watchers []*memoryWatcher) {
	for _, w := range watchers {
		select {
		case w.signal <- struct{}{}:
		default:
			// a signal is already pending; the next read sees this change too
		}
	}
}

type memoryWatcher struct {
	store      *MemoryStore
	collection string
	ctx        context.Context
	cancel     context.CancelFunc
	signal     chan struct{}
	stopOnce   sync.Once
}

func (w *memoryWatcher) Next() (Snapshot, error) {
	select {
	case <-w.ctx.Done():
		return Snapshot{}, ErrWatchStopped
	case <-w.signal:
	}
	if w.ctx.Err() != nil {
		return Snapshot{}, ErrWatchStopped
	}

	w.store.mu.RLock()
	docs := w.store.snapshotLocked(w.collection, func(Document) bool { return true })
	readTime := w.store.now()
	w.store.mu.RUnlock()

	return Snapshot{Docs: docs, ReadTime: readTime}, nil
}

func (w *memoryWatcher) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.store.removeWatcher(w)
	})
}
