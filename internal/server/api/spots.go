package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/location"
	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/internal/validation"
	"github.com/kamikazebr/parkspot/pkg/models"
)

type SpotHandler struct {
	repo     spots.Repository
	location location.Provider
	log      zerolog.Logger
}

func NewSpotHandler(repo spots.Repository, loc location.Provider, log zerolog.Logger) *SpotHandler {
	return &SpotHandler{repo: repo, location: loc, log: log}
}

func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.ParkingSpot
		err  error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		list, err = h.repo.ListByUser(r.Context(), userID)
	} else {
		list, err = h.repo.List(r.Context())
	}
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []models.ParkingSpot{}
	}

	respondJSON(w, http.StatusOK, models.ListSpotsResponse{
		Spots: list,
		Count: len(list),
	})
}

func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	spot, err := h.repo.Get(r.Context(), chi.URLParam(r, "spot_id"))
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, spot)
}

// CreateSpot marks a new available spot owned by the current user. Without
// coordinates the device location is used; a lone latitude or longitude is
// rejected.
func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		respondAppError(w, r, h.log, apperr.ErrNoProfile)
		return
	}

	var req models.CreateSpotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondErrorJSON(w, http.StatusBadRequest, "latitude and longitude must be given together")
		return
	}

	spot := models.ParkingSpot{
		Available:   true,
		UserID:      user.ID,
		UserName:    user.Name,
		Description: strings.TrimSpace(req.Description),
	}
	if req.Latitude != nil {
		spot.Latitude, spot.Longitude = *req.Latitude, *req.Longitude
	} else {
		pos, err := h.location.CurrentPosition(r.Context())
		if err != nil {
			respondAppError(w, r, h.log, err)
			return
		}
		spot.Latitude, spot.Longitude = pos.Latitude, pos.Longitude
	}

	if err := h.repo.Create(r.Context(), &spot); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, spot)
}

// SetAvailability is restricted to the spot owner. Without "available" in
// the body the current state is toggled.
func (h *SpotHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	spot, ok := h.ownedSpot(w, r)
	if !ok {
		return
	}

	var req models.SetAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	available := !spot.Available
	if req.Available != nil {
		available = *req.Available
	}

	if err := h.repo.SetAvailability(r.Context(), spot.ID, available); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}

	updated, err := h.repo.Get(r.Context(), spot.ID)
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteSpot is restricted to the owner. Deleting an unknown spot succeeds.
func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	spot, ok := h.ownedSpot(w, r)
	if !ok {
		return
	}
	if spot == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.repo.Remove(r.Context(), spot.ID); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedSpot loads the spot in the URL and checks the current user owns it.
// For DELETE a missing spot is returned as nil so the caller can succeed.
func (h *SpotHandler) ownedSpot(w http.ResponseWriter, r *http.Request) (*models.ParkingSpot, bool) {
	user := GetCurrentUser(r)
	if user == nil {
		respondAppError(w, r, h.log, apperr.ErrNoProfile)
		return nil, false
	}

	id := chi.URLParam(r, "spot_id")
	spot, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) && r.Method == http.MethodDelete {
			return nil, true
		}
		respondAppError(w, r, h.log, err)
		return nil, false
	}

	if !spot.OwnedBy(user.ID) {
		h.log.Warn().
			Str("spot_id", id).
			Str("user_id", user.ID).
			Str("owner_id", spot.UserID).
			Msg("rejected change to spot owned by another user")
		respondAppError(w, r, h.log, fmt.Errorf("spot %s: %w", id, apperr.ErrForbidden))
		return nil, false
	}
	return spot, true
}
