package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kamikazebr/parkspot/pkg/models"
)

var spotSeq atomic.Int64

// Nagpur city centre, the coordinates used throughout the scenario tests
const (
	NagpurLat = 21.1458
	NagpurLon = 79.0882
)

// NewSpot builds an available spot owned by user, with a unique id
func NewSpot(user models.User) models.ParkingSpot {
	n := spotSeq.Add(1)
	return models.ParkingSpot{
		ID:        fmt.Sprintf("spot-%04d", n),
		Latitude:  NagpurLat + float64(n)*0.0001,
		Longitude: NagpurLon,
		Available: true,
		Timestamp: time.Now().UnixMilli(),
		UserID:    user.ID,
		UserName:  user.Name,
	}
}

// NewUser returns a user with a unique id
func NewUser(name string) models.User {
	return models.User{
		ID:   fmt.Sprintf("user-%04d", spotSeq.Add(1)),
		Name: name,
	}
}

// UniqueCollection namespaces integration test data
func UniqueCollection(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), spotSeq.Add(1))
}
