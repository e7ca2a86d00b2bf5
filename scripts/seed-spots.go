package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/kamikazebr/parkspot/internal/app"
	"github.com/kamikazebr/parkspot/internal/clock"
	"github.com/kamikazebr/parkspot/internal/config"
	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/pkg/logger"
	"github.com/kamikazebr/parkspot/pkg/models"
)

func main() {
	// Parse flags
	count := flag.Int("count", 10, "Number of spots to create")
	lat := flag.Float64("lat", 21.1458, "Centre latitude")
	lon := flag.Float64("lon", 79.0882, "Centre longitude")
	userID := flag.String("user-id", "seed-user", "Owner user id")
	userName := flag.String("user-name", "", "Owner display name (random when empty)")
	seed := flag.Int64("seed", 0, "Random seed, 0 picks one")
	flag.Parse()

	if *count <= 0 {
		fmt.Println("Usage: go run scripts/seed-spots.go --count=10 --lat=21.1458 --lon=79.0882")
		os.Exit(1)
	}

	gofakeit.Seed(*seed)
	if *userName == "" {
		*userName = gofakeit.FirstName()
	}

	ctx := context.Background()

	// Uses PARKSPOT_REMOTE and the backend settings from .env
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Error: failed to load config: %v", err)
	}
	zl := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	store, err := app.OpenRemote(ctx, cfg, zl)
	if err != nil {
		log.Fatalf("Error: failed to open remote store: %v", err)
	}
	defer store.Close()

	repo := spots.NewRemoteRepository(store, clock.NewMonotonic(), zl, cfg.StoreTimeout)

	// Scatter spots within roughly 500m of the centre
	for i := 0; i < *count; i++ {
		spot := models.ParkingSpot{
			Latitude:  *lat + gofakeit.Float64Range(-0.0045, 0.0045),
			Longitude: *lon + gofakeit.Float64Range(-0.0045, 0.0045),
			Available: gofakeit.Bool(),
			UserID:    *userID,
			UserName:  *userName,
		}
		if gofakeit.Bool() {
			spot.Description = fmt.Sprintf("near %s %s", gofakeit.Company(), gofakeit.StreetSuffix())
		}
		if err := repo.Create(ctx, &spot); err != nil {
			log.Fatalf("Error: failed to create spot: %v", err)
		}
		fmt.Printf("✓ %s %-9s %.5f, %.5f\n", spot.ID, spot.StatusLabel(), spot.Latitude, spot.Longitude)
	}

	fmt.Printf("\nSeeded %d spots in %s (%s)\n", *count, spots.Collection, cfg.Remote.Backend)
}
