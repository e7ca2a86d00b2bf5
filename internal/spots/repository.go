// Package spots stores parking spots. RemoteRepository keeps them in the
// shared document store; LocalRepository keeps the whole list on this device
// only. Both satisfy Repository.
package spots

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/metrics"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// Collection is the remote collection spots live in
const Collection = "parkingSpots"

type Repository interface {
	// Create upserts spot by id, assigning ID and Timestamp when they are unset.
	// Retrying with the same spot is harmless.
	Create(ctx context.Context, spot *models.ParkingSpot) error
	List(ctx context.Context) ([]models.ParkingSpot, error)
	ListByUser(ctx context.Context, userID string) ([]models.ParkingSpot, error)
	// SetAvailability writes only available and a fresh timestamp.
	SetAvailability(ctx context.Context, id string, available bool) error
	// Remove succeeds when the spot is already gone.
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.ParkingSpot, error)
}

// NewSpotID returns a time-ordered opaque id
func NewSpotID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func observe(op string, start time.Time, err error) {
	metrics.StoreOperationsTotal.WithLabelValues(op, apperr.Kind(err)).Inc()
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
