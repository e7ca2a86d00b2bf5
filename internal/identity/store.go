// Package identity holds the current user of this device. The record is
// durable locally and mirrored to the remote users collection in the
// background; a remote failure never fails a local save.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/localstore"
	"github.com/kamikazebr/parkspot/internal/validation"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// UsersCollection is the remote collection mirrored user records live in
const UsersCollection = "users"

const (
	defaultQueueSize     = 16
	defaultRemoteTimeout = 10 * time.Second
)

type Store struct {
	local  localstore.Store
	remote docstore.Store
	log    zerolog.Logger
	mirror *mirror
}

type Option func(*options)

type options struct {
	queueSize     int
	remoteTimeout time.Duration
}

// WithQueueSize bounds the number of pending mirror writes
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithRemoteTimeout limits each mirror write
func WithRemoteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.remoteTimeout = d
		}
	}
}

// NewStore starts the mirror worker. remote may be nil when running offline,
// in which case nothing is mirrored. Call Close to stop the worker.
func NewStore(local localstore.Store, remote docstore.Store, logger zerolog.Logger, opts ...Option) *Store {
	o := options{queueSize: defaultQueueSize, remoteTimeout: defaultRemoteTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.With().Str("component", "identity").Logger()
	s := &Store{local: local, remote: remote, log: log}
	if remote != nil {
		s.mirror = newMirror(remote, log, o.queueSize, o.remoteTimeout)
	}
	return s
}

// NewUserID returns a fresh opaque user id
func NewUserID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GetCurrentUser returns the locally stored user, or nil when no profile was
// ever saved. A stored user is re-mirrored to the remote store in the
// background.
func (s *Store) GetCurrentUser(ctx context.Context) (*models.User, error) {
	data, err := s.local.Get(ctx, localstore.KeyCurrentUser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read current user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode current user: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}

	s.enqueue(user)
	return &user, nil
}

// SaveCurrentUser trims and validates user, assigns an id when missing, writes
// it locally and queues the remote mirror. The returned error reflects the
// local write only.
func (s *Store) SaveCurrentUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return apperr.Invalid("user is required", nil)
	}

	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" {
		user.ID = NewUserID()
	}
	if err := validation.Struct(user); err != nil {
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.local.Put(ctx, localstore.KeyCurrentUser, data); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("current user saved")
	s.enqueue(*user)
	return nil
}

// LookupRemote reads users/{id} from the remote store. It returns nil when the
// user was never mirrored or the store is offline.
func (s *Store) LookupRemote(ctx context.Context, id string) (*models.User, error) {
	if s.remote == nil {
		return nil, nil
	}

	doc, err := s.remote.Get(ctx, UsersCollection, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Transport("lookup user", err)
	}
	return &models.User{ID: doc.String("id"), Name: doc.String("name")}, nil
}

// Flush blocks until every mirror write queued before the call has finished
func (s *Store) Flush(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.flush(ctx)
}

// Close drains pending mirror writes and stops the worker
func (s *Store) Close() {
	if s.mirror != nil {
		s.mirror.close()
	}
}

func (s *Store) enqueue(user models.User) {
	if s.mirror != nil {
		s.mirror.enqueue(user)
	}
}

func userDocument(user models.User) docstore.Document {
	return docstore.Document{
		"id":   user.ID,
		"name": user.Name,
	}
}
