package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// readEvent returns the next snapshot event from an SSE stream
func readEvent(t *testing.T, lines <-chan string) models.SpotStreamEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed")
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev models.SpotStreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("bad event payload %q: %v", line, err)
			}
			return ev
		case <-timeout:
			t.Fatal("timed out waiting for stream event")
		}
	}
}

func TestStream_PushesSnapshots(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, models.ParkingSpot{ID: "a", Latitude: 1, Longitude: 1, Available: true, UserID: "u-asha"})

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/spots/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	first := readEvent(t, lines)
	if len(first.Spots) != 1 || len(first.Added) != 1 || first.Added[0] != "a" {
		t.Fatalf("unexpected first event: %+v", first)
	}

	if err := env.repo.SetAvailability(context.Background(), "a", false); err != nil {
		t.Fatal(err)
	}
	next := readEvent(t, lines)
	if len(next.Modified) != 1 || next.Spots[0].Available {
		t.Fatalf("expected spot a modified to occupied, got %+v", next)
	}

	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for env.store.WatcherCount(spots.Collection) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watch was not released after the client disconnected")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStream_Offline(t *testing.T) {
	router := NewRouter(Deps{
		Profiles: &stubProfiles{},
		Log:      zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/spots/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status offline, got %d", rec.Code)
	}
}
