package spots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/clock"
	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/validation"
	"github.com/kamikazebr/parkspot/pkg/models"
)

const defaultTimeout = 10 * time.Second

// RemoteRepository keeps spots in the shared document store
type RemoteRepository struct {
	store   docstore.Store
	clock   clock.Clock
	log     zerolog.Logger
	timeout time.Duration
}

// NewRemoteRepository returns a repository bounded by timeout per call
// (10s when timeout is zero).
func NewRemoteRepository(store docstore.Store, clk clock.Clock, logger zerolog.Logger, timeout time.Duration) *RemoteRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RemoteRepository{
		store:   store,
		clock:   clk,
		log:     logger.With().Str("component", "spots").Logger(),
		timeout: timeout,
	}
}

func (r *RemoteRepository) Create(ctx context.Context, spot *models.ParkingSpot) (err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	if spot == nil {
		return apperr.Invalid("spot is required", nil)
	}
	if spot.ID == "" {
		spot.ID = NewSpotID()
	}
	if spot.Timestamp == 0 {
		spot.Timestamp = r.clock.NowMillis()
	}
	if err = validation.Struct(spot); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err = r.store.Set(ctx, Collection, spot.ID, Encode(*spot)); err != nil {
		r.log.Error().Err(err).Str("spot_id", spot.ID).Msg("failed to create spot")
		return apperr.Transport("create spot", err)
	}
	r.log.Info().Str("spot_id", spot.ID).Str("user_id", spot.UserID).Msg("spot created")
	return nil
}

func (r *RemoteRepository) List(ctx context.Context) (spots []models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	docs, err := r.store.All(ctx, Collection)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list spots")
		return nil, apperr.Transport("list spots", err)
	}
	return DecodeAll(docs, r.log), nil
}

func (r *RemoteRepository) ListByUser(ctx context.Context, userID string) (spots []models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("list_by_user", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	docs, err := r.store.Where(ctx, Collection, fieldUserID, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Msg("failed to list user spots")
		return nil, apperr.Transport("list user spots", err)
	}
	return DecodeAll(docs, r.log), nil
}

// SetAvailability merges only the two mutable fields. An unknown id ends up
// as a partial document, the same as a merge write on the store itself;
// callers that care check ownership with Get first.
func (r *RemoteRepository) SetAvailability(ctx context.Context, id string, available bool) (err error) {
	start := time.Now()
	defer func() { observe("set_availability", start, err) }()

	if id == "" {
		return apperr.Invalid("spot id is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	patch := docstore.Document{
		fieldAvailable: available,
		fieldTimestamp: r.clock.NowMillis(),
	}
	if err = r.store.Set(ctx, Collection, id, patch); err != nil {
		r.log.Error().Err(err).Str("spot_id", id).Msg("failed to update spot availability")
		return apperr.Transport("set availability", err)
	}
	r.log.Info().Str("spot_id", id).Bool("available", available).Msg("spot availability updated")
	return nil
}

func (r *RemoteRepository) Remove(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe("remove", start, err) }()

	if id == "" {
		return apperr.Invalid("spot id is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err = r.store.Delete(ctx, Collection, id); err != nil {
		r.log.Error().Err(err).Str("spot_id", id).Msg("failed to remove spot")
		return apperr.Transport("remove spot", err)
	}
	r.log.Info().Str("spot_id", id).Msg("spot removed")
	return nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (spot *models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("spot %s: %w", id, apperr.ErrNotFound)
		}
		r.log.Error().Err(err).Str("spot_id", id).Msg("failed to get spot")
		return nil, apperr.Transport("get spot", err)
	}

	decoded, err := Decode(doc)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return nil, fmt.Errorf("spot %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to decode spot %s: %w", id, err)
	}
	return &decoded, nil
}
