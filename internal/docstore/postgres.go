package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// notifyChannel is raised by the documents trigger with the collection name as payload
const notifyChannel = "docstore_changes"

// PostgresStore keeps documents as JSONB rows and watches them with LISTEN/NOTIFY
type PostgresStore struct {
	db  *sqlx.DB
	dsn string
	log zerolog.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := newPostgresStore(db, dsn, logger)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db *sqlx.DB, dsn string, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, dsn: dsn, log: logger}
}

// migrate applies the embedded migrations in filename order. Every migration is idempotent.
func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		content, err := migrationsFS.ReadFile("migrations/" + migration)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration, err)
		}
		s.log.Debug().Str("migration", migration).Msg("applied migration")
	}
	return nil
}

// Set merges fields into the stored JSONB object (top-level keys only)
func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields Document) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}

	data, err := json.Marshal(withID(fields.Clone(), id))
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(data)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var data types.JSONText
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	err := s.db.GetContext(ctx, &data, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return decodeJSONDocument(data, id)
}

func (s *PostgresStore) All(ctx context.Context, collection string) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`
	return s.selectDocuments(ctx, query, collection)
}

// Where uses JSONB containment, which the GIN index serves
func (s *PostgresStore) Where(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	filter, err := json.Marshal(map[string]interface{}{field: value})
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}
	query := `SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY id`
	return s.selectDocuments(ctx, query, collection, string(filter))
}

type documentRow struct {
	ID   string         `db:"id"`
	Data types.JSONText `db:"data"`
}

func (s *PostgresStore) selectDocuments(ctx context.Context, query string, args ...interface{}) ([]Document, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeJSONDocument(row.Data, row.ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeJSONDocument(data types.JSONText, id string) (Document, error) {
	var doc Document
	if err := data.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return withID(doc, id), nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch listens on the notify channel. pq.Listener reconnects on its own
// between 10s and 1m; after a reconnect the collection is re-read because
// notifications sent while disconnected are lost.
func (s *PostgresStore) Watch(ctx context.Context, collection string) (Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)
	log := s.log.With().Str("collection", collection).Logger()

	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("postgres listener event")
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}

	return &postgresWatcher{
		store:      s,
		collection: collection,
		listener:   listener,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type postgresWatcher struct {
	store      *PostgresStore
	collection string
	listener   *pq.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopOnce   sync.Once
}

func (w *postgresWatcher) Next() (Snapshot, error) {
	if w.started {
		if err := w.wait(); err != nil {
			return Snapshot{}, err
		}
	}
	w.started = true

	docs, err := w.store.All(w.ctx, w.collection)
	if err != nil {
		if w.ctx.Err() != nil {
			return Snapshot{}, ErrWatchStopped
		}
		return Snapshot{}, err
	}
	return Snapshot{Docs: docs, ReadTime: time.Now()}, nil
}

// wait blocks until a notification for this collection arrives. A nil
// notification means the connection was re-established.
func (w *postgresWatcher) wait() error {
	for {
		select {
		case <-w.ctx.Done():
			return ErrWatchStopped
		case n, ok := <-w.listener.Notify:
			if !ok {
				return ErrWatchStopped
			}
			if n == nil || n.Extra == w.collection {
				return nil
			}
		case <-time.After(90 * time.Second):
			go w.listener.Ping()
		}
	}
}

func (w *postgresWatcher) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.listener.Close()
	})
}
