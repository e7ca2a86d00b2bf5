package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/pkg/models"
)

func writeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func respondErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// decodeJSON decodes the request body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondAppError maps error kinds to status codes. Unexpected errors are
// logged and reported without details.
func respondAppError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		respondErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondErrorJSON(w, http.StatusNotFound, "spot not found")
	case errors.Is(err, apperr.ErrForbidden):
		respondErrorJSON(w, http.StatusForbidden, "only the owner can change this spot")
	case errors.Is(err, apperr.ErrPermissionDenied):
		respondErrorJSON(w, http.StatusConflict, "location unavailable")
	case errors.Is(err, apperr.ErrNoProfile):
		respondErrorJSON(w, http.StatusPreconditionFailed, "set your name first")
	case errors.Is(err, apperr.ErrTransport):
		respondErrorJSON(w, http.StatusServiceUnavailable, "spot store unavailable, try again")
	default:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		respondErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}
