package models

import "time"

// ParkingSpot is a single shared parking-availability entry.
// Timestamp is the last-modified time in milliseconds since epoch and acts as
// the last-write-wins marker. UserName is copied at creation and never re-synced.
type ParkingSpot struct {
	ID          string  `json:"id" validate:"required"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Available   bool    `json:"available"`
	Timestamp   int64   `json:"timestamp" validate:"gte=0"`
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	Description string  `json:"description,omitempty" validate:"max=500"`
}

// UpdatedAt returns Timestamp as a time.Time
func (s ParkingSpot) UpdatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// StatusLabel mirrors the marker title shown on the map
func (s ParkingSpot) StatusLabel() string {
	if s.Available {
		return "Available"
	}
	return "Occupied"
}

// OwnedBy reports whether userID created this spot
func (s ParkingSpot) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}
