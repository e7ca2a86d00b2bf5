package spots

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/pkg/models"
)

func TestDecode_ToleratesBackendNumberTypes(t *testing.T) {
	tests := []struct {
		name string
		doc  docstore.Document
	}{
		{"firestore", docstore.Document{"id": "s1", "latitude": 21.1458, "longitude": 79.0882, "timestamp": int64(1700000000000)}},
		{"bson", docstore.Document{"id": "s1", "latitude": 21.1458, "longitude": 79.0882, "timestamp": int32(17000)}},
		{"json", docstore.Document{"id": "s1", "latitude": json.Number("21.1458"), "longitude": 79.0882, "timestamp": float64(1700000000000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spot, err := Decode(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, "s1", spot.ID)
			assert.InDelta(t, 21.1458, spot.Latitude, 1e-9)
			assert.NotZero(t, spot.Timestamp)
		})
	}
}

func TestDecode_RequiresID(t *testing.T) {
	_, err := Decode(docstore.Document{"latitude": 1.0})
	assert.Error(t, err)
}

func TestDecode_RequiresCoordinates(t *testing.T) {
	_, err := Decode(docstore.Document{"id": "s1", "available": true, "timestamp": int64(5)})
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = Decode(docstore.Document{"id": "s1", "latitude": 0.0, "timestamp": int64(5)})
	assert.ErrorIs(t, err, ErrIncomplete)

	spot, err := Decode(docstore.Document{"id": "s1", "latitude": 0.0, "longitude": 0.0})
	require.NoError(t, err)
	assert.Zero(t, spot.Latitude)
}

func TestEncode_RoundTrip(t *testing.T) {
	spot := models.ParkingSpot{ID: "s1", Latitude: 21.1458, Longitude: 79.0882, Available: true, Timestamp: 5, UserID: "u1", UserName: "Asha"}

	doc := Encode(spot)
	_, hasDescription := doc["description"]
	assert.False(t, hasDescription)

	decoded, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, spot, decoded)

	spot.Description = "near the gate"
	assert.Equal(t, "near the gate", Encode(spot)["description"])
}
