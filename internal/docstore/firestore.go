package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

// FirestoreConfig selects the Firebase project. CredentialsPath may be empty
// when running against the emulator (FIRESTORE_EMULATOR_HOST) or with
// application default credentials.
type FirestoreConfig struct {
	CredentialsPath string
	ProjectID       string
}

type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore initializes the Firebase Admin SDK and opens a Firestore client
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	var opts []option.ClientOption
	projectID := cfg.ProjectID

	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))

		// Read project ID from credentials file when not configured explicitly
		if projectID == "" {
			pid, err := projectIDFromCredentials(cfg.CredentialsPath)
			if err != nil {
				return nil, err
			}
			projectID = pid
		}
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

func projectIDFromCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	// Parse only project_id, without keeping the rest of the credentials around
	var creds struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return "", fmt.Errorf("project_id not found in credentials file")
	}
	return creds.ProjectID, nil
}

// Set writes with MergeAll so absent fields are preserved
// Path: {collection}/{id}
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}

	_, err := s.client.
		Collection(collection).
		Doc(id).
		Set(ctx, map[string]interface{}(fields), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := s.client.
		Collection(collection).
		Doc(id).
		Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	return withID(Document(doc.Data()), doc.Ref.ID), nil
}

func (s *FirestoreStore) All(ctx context.Context, collection string) ([]Document, error) {
	return collectDocuments(s.client.Collection(collection).Documents(ctx))
}

func (s *FirestoreStore) Where(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	iter := s.client.
		Collection(collection).
		Where(field, "==", value).
		Documents(ctx)
	return collectDocuments(iter)
}

func collectDocuments(iter *firestore.DocumentIterator) ([]Document, error) {
	defer iter.Stop()

	var docs []Document
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}
		docs = append(docs, withID(Document(doc.Data()), doc.Ref.ID))
	}
	return docs, nil
}

// Delete removes a document. Firestore treats deleting a missing document as success.
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.
		Collection(collection).
		Doc(id).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch opens a snapshot listener on the collection. The listener reconnects
// on its own; Next only fails for errors the SDK gives up on.
func (s *FirestoreStore) Watch(ctx context.Context, collection string) (Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &firestoreWatcher{
		iter:   s.client.Collection(collection).Snapshots(ctx),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

type firestoreWatcher struct {
	iter     *firestore.QuerySnapshotIterator
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// Next is the only caller of the iterator; the SDK does not allow Stop
// while Next is running, so the iterator is released here on the way out.
func (w *firestoreWatcher) Next() (Snapshot, error) {
	if w.ctx.Err() != nil {
		w.stopIter()
		return Snapshot{}, ErrWatchStopped
	}

	snap, err := w.iter.Next()
	if err != nil {
		w.stopIter()
		if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || w.ctx.Err() != nil {
			return Snapshot{}, ErrWatchStopped
		}
		return Snapshot{}, fmt.Errorf("snapshot listener: %w", err)
	}

	docs, err := collectDocuments(snap.Documents)
	if err != nil {
		w.stopIter()
		return Snapshot{}, err
	}
	return Snapshot{Docs: docs, ReadTime: snap.ReadTime}, nil
}

// Stop cancels the listener; a blocked Next returns ErrWatchStopped.
func (w *firestoreWatcher) Stop() {
	w.cancel()
}

func (w *firestoreWatcher) stopIter() {
	w.stopOnce.Do(w.iter.Stop)
}
