package spots

import (
	"context"

	"github.com/kamikazebr/parkspot/pkg/models"
)

// SoftRepository degrades silently: failures become false or an empty list.
// The wrapped repository has already logged them.
type SoftRepository struct {
	repo Repository
}

func NewSoftRepository(repo Repository) SoftRepository {
	return SoftRepository{repo: repo}
}

func (s SoftRepository) Create(ctx context.Context, spot *models.ParkingSpot) bool {
	return s.repo.Create(ctx, spot) == nil
}

func (s SoftRepository) List(ctx context.Context) []models.ParkingSpot {
	list, err := s.repo.List(ctx)
	if err != nil {
		return []models.ParkingSpot{}
	}
	return list
}

func (s SoftRepository) ListByUser(ctx context.Context, userID string) []models.ParkingSpot {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return []models.ParkingSpot{}
	}
	return list
}

func (s SoftRepository) SetAvailability(ctx context.Context, id string, available bool) bool {
	return s.repo.SetAvailability(ctx, id, available) == nil
}

func (s SoftRepository) Remove(ctx context.Context, id string) bool {
	return s.repo.Remove(ctx, id) == nil
}
