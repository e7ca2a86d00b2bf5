package models

// Spot API types
type CreateSpotRequest struct {
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Description string   `json:"description,omitempty" validate:"max=500"`
}

type SetAvailabilityRequest struct {
	// Available toggles the current state when omitted
	Available *bool `json:"available,omitempty"`
}

type ListSpotsResponse struct {
	Spots []ParkingSpot `json:"spots"`
	Count int           `json:"count"`
}

// Profile API types
type SaveProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Stream event payload sent over server-sent events
type SpotStreamEvent struct {
	Spots    []ParkingSpot `json:"spots"`
	Added    []string      `json:"added"`
	Modified []string      `json:"modified"`
	Removed  []string      `json:"removed"`
	ReadTime int64         `json:"readTime"`
}

// Generic response types
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
