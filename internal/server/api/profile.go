package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/validation"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// ProfileStore is the identity store as seen by the HTTP layer
type ProfileStore interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
	SaveCurrentUser(ctx context.Context, user *models.User) error
}

type ProfileHandler struct {
	profiles ProfileStore
	log      zerolog.Logger
}

func NewProfileHandler(profiles ProfileStore, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetCurrentUser(r.Context())
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	if user == nil {
		respondErrorJSON(w, http.StatusNotFound, "profile not set")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// SaveProfile sets the display name, keeping the existing user id
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req models.SaveProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}

	user, err := h.profiles.GetCurrentUser(r.Context())
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	if user == nil {
		user = &models.User{}
	}
	user.Name = req.Name

	if err := h.profiles.SaveCurrentUser(r.Context(), user); err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
