package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/feed"
	"github.com/kamikazebr/parkspot/internal/location"
	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/pkg/version"
)

type Deps struct {
	Profiles ProfileStore
	Spots    spots.Repository
	Location location.Provider
	// Feed is nil when running offline; the stream endpoint then returns 503
	Feed *feed.Syncer
	Log  zerolog.Logger
}

func NewRouter(deps Deps) http.Handler {
	profileHandler := NewProfileHandler(deps.Profiles, deps.Log)
	spotHandler := NewSpotHandler(deps.Spots, deps.Location, deps.Log)

	var sub Subscriber
	if deps.Feed != nil {
		sub = deps.Feed
	}
	streamHandler := NewStreamHandler(sub, deps.Log)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "parkspot",
			"live":    deps.Feed != nil,
			"build":   version.Current(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.SaveProfile)

		r.Route("/spots", func(r chi.Router) {
			r.Get("/", spotHandler.ListSpots)
			r.Get("/stream", streamHandler.Stream)
			r.Get("/{spot_id}", spotHandler.GetSpot)

			// Mutations act as the current user
			r.Group(func(r chi.Router) {
				r.Use(ProfileMiddleware(deps.Profiles, deps.Log))
				r.Post("/", spotHandler.CreateSpot)
				r.Patch("/{spot_id}/availability", spotHandler.SetAvailability)
				r.Delete("/{spot_id}", spotHandler.DeleteSpot)
			})
		})
	})

	return r
}
