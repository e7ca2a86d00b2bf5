package spots

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// Document field names, shared by every backend and the wire format
const (
	fieldID          = "id"
	fieldLatitude    = "latitude"
	fieldLongitude   = "longitude"
	fieldAvailable   = "available"
	fieldTimestamp   = "timestamp"
	fieldUserID      = "userId"
	fieldUserName    = "userName"
	fieldDescription = "description"
)

// ErrIncomplete marks a document without coordinates, such as the partial
// record a bare availability write leaves behind.
var ErrIncomplete = errors.New("spot document has no coordinates")

// Encode converts a spot into its stored document
func Encode(spot models.ParkingSpot) docstore.Document {
	doc := docstore.Document{
		fieldID:        spot.ID,
		fieldLatitude:  spot.Latitude,
		fieldLongitude: spot.Longitude,
		fieldAvailable: spot.Available,
		fieldTimestamp: spot.Timestamp,
		fieldUserID:    spot.UserID,
		fieldUserName:  spot.UserName,
	}
	if spot.Description != "" {
		doc[fieldDescription] = spot.Description
	}
	return doc
}

// Decode converts a stored document back into a spot
func Decode(doc docstore.Document) (models.ParkingSpot, error) {
	spot := models.ParkingSpot{
		ID:          doc.String(fieldID),
		Available:   doc.Bool(fieldAvailable),
		UserID:      doc.String(fieldUserID),
		UserName:    doc.String(fieldUserName),
		Description: doc.String(fieldDescription),
	}
	if spot.ID == "" {
		return models.ParkingSpot{}, fmt.Errorf("document has no id")
	}

	if _, ok := doc[fieldLatitude]; !ok {
		return models.ParkingSpot{}, fmt.Errorf("spot %s: %w", spot.ID, ErrIncomplete)
	}
	if _, ok := doc[fieldLongitude]; !ok {
		return models.ParkingSpot{}, fmt.Errorf("spot %s: %w", spot.ID, ErrIncomplete)
	}

	var err error
	if spot.Latitude, err = doc.Float(fieldLatitude); err != nil {
		return models.ParkingSpot{}, fmt.Errorf("spot %s: %w", spot.ID, err)
	}
	if spot.Longitude, err = doc.Float(fieldLongitude); err != nil {
		return models.ParkingSpot{}, fmt.Errorf("spot %s: %w", spot.ID, err)
	}
	if spot.Timestamp, err = doc.Int(fieldTimestamp); err != nil {
		return models.ParkingSpot{}, fmt.Errorf("spot %s: %w", spot.ID, err)
	}
	return spot, nil
}

// DecodeAll decodes docs, skipping (and logging) the ones that are malformed
// so one bad record never hides the rest of the collection.
func DecodeAll(docs []docstore.Document, log zerolog.Logger) []models.ParkingSpot {
	out := make([]models.ParkingSpot, 0, len(docs))
	for _, doc := range docs {
		spot, err := Decode(doc)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed spot document")
			continue
		}
		out = append(out, spot)
	}
	return out
}
