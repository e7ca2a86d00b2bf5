package api

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/pkg/models"
)

func TestRun_ShutdownEndsOpenStream(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, models.ParkingSpot{ID: "a", Latitude: 1, Longitude: 1, Available: true, UserID: "u-asha"})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(ctx, ln.Addr().String(), env.router)

	runErr := make(chan error, 1)
	go func() {
		runErr <- Run(ctx, srv, ln, zerolog.Nop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/spots/stream")
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	readEvent(t, lines)

	if n := env.store.WatcherCount(spots.Collection); n != 1 {
		t.Fatalf("expected 1 live watcher, got %d", n)
	}

	start := time.Now()
	cancel()

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown blocked by the open stream")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("shutdown took %s", elapsed)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.store.WatcherCount(spots.Collection) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher still live after shutdown: %d", env.store.WatcherCount(spots.Collection))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRun_ListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer taken.Close()

	srv := NewServer(context.Background(), taken.Addr().String(), http.NotFoundHandler())
	if err := Run(context.Background(), srv, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for an address in use")
	}
}
