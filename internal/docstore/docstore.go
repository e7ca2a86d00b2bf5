// Package docstore is the remote document store used for users and parking
// spots. Backends share one contract: merge-upsert writes, full collection
// scans, single-field equality filters and a live watch that delivers the
// whole collection on every change.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrWatchStopped is returned by Watcher.Next once the watch was stopped or
// its context was cancelled.
var ErrWatchStopped = errors.New("watch stopped")

// Document is a single record as stored remotely, keyed by field name.
type Document map[string]interface{}

// Snapshot is the full state of a watched collection at ReadTime.
type Snapshot struct {
	Docs     []Document
	ReadTime time.Time
}

// Store is implemented by every remote backend.
type Store interface {
	// Set creates the document or overwrites only the given fields.
	Set(ctx context.Context, collection, id string, fields Document) error
	// Get returns apperr.ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	All(ctx context.Context, collection string) ([]Document, error)
	Where(ctx context.Context, collection, field string, value interface{}) ([]Document, error)
	// Delete succeeds when the document is already gone.
	Delete(ctx context.Context, collection, id string) error
	// Watch starts a live subscription. The first Next call returns the
	// current state of the collection.
	Watch(ctx context.Context, collection string) (Watcher, error)
	Close() error
}

// Watcher yields full collection snapshots until stopped.
type Watcher interface {
	Next() (Snapshot, error)
	Stop()
}

// Clone returns a deep copy for the value types stored in documents.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return Document(t).Clone()
	case Document:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Merge overwrites the fields present in patch and keeps everything else.
func (d Document) Merge(patch Document) Document {
	out := d.Clone()
	if out == nil {
		out = make(Document, len(patch))
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the field as a string, or "" when absent or mistyped.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the field as a bool, or false when absent or mistyped.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Float returns numeric fields as float64. Backends decode numbers
// differently (int64 from Firestore, int32 from BSON, float64 from JSON).
func (d Document) Float(key string) (float64, error) {
	switch v := d[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("field %q: expected number, got %T", key, v)
	}
}

// Int returns numeric fields as int64, rounding floats.
func (d Document) Int(key string) (int64, error) {
	switch v := d[key].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(math.Round(v)), nil
	case float32:
		return int64(math.Round(float64(v))), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		return int64(math.Round(f)), err
	default:
		return 0, fmt.Errorf("field %q: expected integer, got %T", key, v)
	}
}

// SortByID orders documents by their "id" field so snapshots are stable.
func SortByID(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].String("id") < docs[j].String("id")
	})
}

// withID makes sure the document carries its key in the "id" field.
func withID(doc Document, id string) Document {
	if doc == nil {
		doc = Document{}
	}
	if _, ok := doc["id"]; !ok {
		doc["id"] = id
	}
	return doc
}
