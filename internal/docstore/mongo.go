package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

const mongoDefaultTimeout = 10 * time.Second

// MongoConfig captures the minimal settings required to establish a MongoDB connection.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoStore keeps each collection as a MongoDB collection keyed by _id.
// Watch relies on change streams, which need a replica set.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewMongoStore connects, verifies connectivity with a ping, and selects the database.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = mongoDefaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
	}, nil
}

// Set upserts with $set so fields not in the patch are left untouched.
func (s *MongoStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M(fields)}
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) All(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) Where(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch opens a change stream and re-reads the whole collection on every
// change, so consumers see the same full-snapshot semantics as Firestore.
func (s *MongoStore) Watch(ctx context.Context, collection string) (Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open change stream on %s: %w", collection, err)
	}

	return &mongoWatcher{
		store:      s,
		collection: collection,
		stream:     stream,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// fromBSON drops the Mongo-internal _id and exposes it as "id".
func fromBSON(raw bson.M) Document {
	doc := Document(raw)
	id, _ := doc["_id"].(string)
	delete(doc, "_id")
	return withID(doc, id)
}

type mongoWatcher struct {
	store      *MongoStore
	collection string
	stream     *mongo.ChangeStream
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	closeOnce  sync.Once
	closed     bool
}

// Next drives the stream from the consumer goroutine; the stream itself is
// only ever touched here because change streams are not goroutine-safe.
func (w *mongoWatcher) Next() (Snapshot, error) {
	if w.started {
		if !w.stream.Next(w.ctx) {
			defer w.closeStream()
			if w.ctx.Err() != nil {
				return Snapshot{}, ErrWatchStopped
			}
			if err := w.stream.Err(); err != nil {
				return Snapshot{}, fmt.Errorf("change stream: %w", err)
			}
			return Snapshot{}, ErrWatchStopped
		}
	}
	w.started = true

	docs, err := w.store.All(w.ctx, w.collection)
	if err != nil {
		w.closeStream()
		if w.ctx.Err() != nil {
			return Snapshot{}, ErrWatchStopped
		}
		return Snapshot{}, err
	}
	SortByID(docs)
	return Snapshot{Docs: docs, ReadTime: time.Now()}, nil
}

// Stop cancels the watch; a blocked Next returns ErrWatchStopped and closes the stream.
func (w *mongoWatcher) Stop() {
	w.cancel()
}

func (w *mongoWatcher) closeStream() {
	w.closeOnce.Do(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.stream.Close(closeCtx)
		w.closed = true
	})
}
