package spots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/clock"
	"github.com/kamikazebr/parkspot/internal/localstore"
	"github.com/kamikazebr/parkspot/internal/validation"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// LocalRepository keeps every spot under a single local key as one JSON
// list. Nothing is shared with other devices.
type LocalRepository struct {
	mu    sync.Mutex
	store localstore.Store
	clock clock.Clock
	log   zerolog.Logger
}

func NewLocalRepository(store localstore.Store, clk clock.Clock, logger zerolog.Logger) *LocalRepository {
	return &LocalRepository{
		store: store,
		clock: clk,
		log:   logger.With().Str("component", "spots").Str("mode", "local").Logger(),
	}
}

func (r *LocalRepository) load(ctx context.Context) ([]models.ParkingSpot, error) {
	data, err := r.store.Get(ctx, localstore.KeyParkingSpots)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []models.ParkingSpot{}, nil
		}
		return nil, apperr.Transport("read local spots", err)
	}

	var list []models.ParkingSpot
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode local spots: %w", err)
	}
	return list, nil
}

func (r *LocalRepository) save(ctx context.Context, list []models.ParkingSpot) error {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode local spots: %w", err)
	}
	if err := r.store.Put(ctx, localstore.KeyParkingSpots, data); err != nil {
		return apperr.Transport("write local spots", err)
	}
	return nil
}

func (r *LocalRepository) Create(ctx context.Context, spot *models.ParkingSpot) (err error) {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].ID == spot.ID {
			// absent fields keep their stored value, as with a remote merge
			merged := *spot
			if merged.Description == "" {
				merged.Description = list[i].Description
			}
			list[i] = merged
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, *spot)
	}

	if err = r.save(ctx, list); err != nil {
		r.log.Error().Err(err).Str("spot_id", spot.ID).Msg("failed to create spot")
		return err
	}
	return nil
}

func (r *LocalRepository) List(ctx context.Context) (list []models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *LocalRepository) ListByUser(ctx context.Context, userID string) (list []models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("list_by_user", start, err) }()

	r.mu.Lock()
	all, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	list = make([]models.ParkingSpot, 0, len(all))
	for _, s := range all {
		if s.UserID == userID {
			list = append(list, s)
		}
	}
	return list, nil
}

// SetAvailability fails with apperr.ErrNotFound for unknown ids since there
// is no partial record to merge into.
func (r *LocalRepository) SetAvailability(ctx context.Context, id string, available bool) (err error) {
	start := time.Now()
	defer func() { observe("set_availability", start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Available = available
			list[i].Timestamp = r.clock.NowMillis()
			return r.save(ctx, list)
		}
	}
	return fmt.Errorf("spot %s: %w", id, apperr.ErrNotFound)
}

func (r *LocalRepository) Remove(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe("remove", start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, s := range list {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return r.save(ctx, kept)
}

func (r *LocalRepository) Get(ctx context.Context, id string) (spot *models.ParkingSpot, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			found := list[i]
			return &found, nil
		}
	}
	return nil, fmt.Errorf("spot %s: %w", id, apperr.ErrNotFound)
}
