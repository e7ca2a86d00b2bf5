package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/feed"
	"github.com/kamikazebr/parkspot/pkg/models"
)

const defaultHeartbeat = 15 * time.Second

// Subscriber opens live spot feeds
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func(feed.Snapshot)) (*feed.Subscription, error)
}

// StreamHandler pushes the spot collection to clients as server-sent events.
// A slow client only ever receives the latest snapshot.
type StreamHandler struct {
	feed      Subscriber
	log       zerolog.Logger
	heartbeat time.Duration
}

func NewStreamHandler(sub Subscriber, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{feed: sub, log: log, heartbeat: defaultHeartbeat}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		respondErrorJSON(w, http.StatusServiceUnavailable, "live updates are not available offline")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondErrorJSON(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	latest := make(chan feed.Snapshot, 1)
	sub, err := h.feed.Subscribe(r.Context(), func(s feed.Snapshot) {
		for {
			select {
			case latest <- s:
				return
			default:
			}
			// replace the snapshot the client has not picked up yet
			select {
			case <-latest:
			default:
			}
		}
	})
	if err != nil {
		respondAppError(w, r, h.log, err)
		return
	}
	defer sub.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.Debug().Str("remote_addr", r.RemoteAddr).Msg("spot stream opened")
	defer h.log.Debug().Str("remote_addr", r.RemoteAddr).Msg("spot stream closed")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			if err := sub.Err(); err != nil {
				fmt.Fprintf(w, "event: error\ndata: %q\n\n", "live updates interrupted")
				flusher.Flush()
			}
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case s := <-latest:
			if err := writeSnapshotEvent(w, s); err != nil {
				h.log.Debug().Err(err).Msg("spot stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, s feed.Snapshot) error {
	data, err := json.Marshal(toStreamEvent(s))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}

func toStreamEvent(s feed.Snapshot) models.SpotStreamEvent {
	return models.SpotStreamEvent{
		Spots:    nonNil(s.Spots),
		Added:    nonNilIDs(s.Delta.Added),
		Modified: nonNilIDs(s.Delta.Modified),
		Removed:  nonNilIDs(s.Delta.Removed),
		ReadTime: s.ReadTime.UnixMilli(),
	}
}

func nonNil(list []models.ParkingSpot) []models.ParkingSpot {
	if list == nil {
		return []models.ParkingSpot{}
	}
	return list
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
