// Package app builds the stores, repositories and services selected by
// configuration and hands them to the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/clock"
	"github.com/kamikazebr/parkspot/internal/config"
	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/feed"
	"github.com/kamikazebr/parkspot/internal/identity"
	"github.com/kamikazebr/parkspot/internal/localstore"
	"github.com/kamikazebr/parkspot/internal/location"
	"github.com/kamikazebr/parkspot/internal/spots"
)

type Options struct {
	// Offline keeps spots in the local store and skips the remote store
	// entirely. There is no live feed in this mode.
	Offline bool
}

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Remote   docstore.Store
	Local    localstore.Store
	Identity *identity.Store
	Spots    spots.Repository
	// Syncer is nil when offline
	Syncer   *feed.Syncer
	Location location.Provider
}

// New opens the configured stores. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: logger}

	local, err := OpenLocal(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	a.Local = local

	provider, err := location.FromStrings(cfg.Location.Latitude, cfg.Location.Longitude)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid location: %w", err)
	}
	a.Location = location.NewSession(provider)

	clk := clock.NewMonotonic()

	if opts.Offline {
		logger.Info().Msg("running offline, spots stay on this device")
		a.Identity = identity.NewStore(local, nil, logger)
		a.Spots = spots.NewLocalRepository(local, clk, logger)
		return a, nil
	}

	remote, err := OpenRemote(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	a.Remote = remote
	logger.Info().Str("backend", cfg.Remote.Backend).Msg("remote store connected")

	a.Identity = identity.NewStore(local, remote, logger, identity.WithRemoteTimeout(cfg.StoreTimeout))
	a.Spots = spots.NewRemoteRepository(remote, clk, logger, cfg.StoreTimeout)
	a.Syncer = feed.NewSyncer(remote, logger, feed.WithCoalesce(cfg.FeedCoalesce))
	return a, nil
}

// OpenRemote connects the remote document store named by PARKSPOT_REMOTE
func OpenRemote(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (docstore.Store, error) {
	switch cfg.Remote.Backend {
	case "firestore":
		return docstore.NewFirestoreStore(ctx, docstore.FirestoreConfig{
			CredentialsPath: cfg.Remote.FirebaseCredentialsPath,
			ProjectID:       cfg.Remote.FirebaseProjectID,
		})
	case "mongo":
		return docstore.NewMongoStore(ctx, docstore.MongoConfig{
			URI:      cfg.Remote.MongoURI,
			Database: cfg.Remote.MongoDatabase,
			Timeout:  cfg.StoreTimeout,
		})
	case "postgres":
		return docstore.NewPostgresStore(ctx, cfg.Remote.DatabaseURL, logger)
	case "memory":
		logger.Warn().Msg("using in-memory remote store, data is lost on exit")
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
	}
}

// OpenLocal opens the local store named by PARKSPOT_LOCAL
func OpenLocal(ctx context.Context, cfg *config.Config) (localstore.Store, error) {
	switch cfg.Local.Backend {
	case "file":
		return localstore.NewFileStore(cfg.DataDir)
	case "redis":
		return localstore.NewRedisStore(ctx, localstore.RedisConfig{
			Addr:    cfg.Local.RedisAddr,
			DB:      cfg.Local.RedisDB,
			Prefix:  cfg.Local.RedisPrefix,
			Timeout: cfg.StoreTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown local backend %q", cfg.Local.Backend)
	}
}

// Close drains the identity mirror before closing the stores it writes to
func (a *App) Close() error {
	if a.Identity != nil {
		a.Identity.Close()
	}

	var errs []error
	if a.Remote != nil {
		if err := a.Remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("remote store: %w", err))
		}
	}
	if a.Local != nil {
		if err := a.Local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("local store: %w", err))
		}
	}
	return errors.Join(errs...)
}
