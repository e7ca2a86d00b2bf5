package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamikazebr/parkspot/internal/app"
	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/internal/ui"
	"github.com/kamikazebr/parkspot/pkg/models"
)

var spotCmd = &cobra.Command{
	Use:   "spot",
	Short: "Parking spot commands",
}

var (
	spotLat         float64
	spotLon         float64
	spotDescription string
	spotListMine    bool
	spotListUser    string
	spotAvailable   bool
	spotRemoveYes   bool
)

var spotAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Mark an available spot at your location",
	Long: `Mark an available spot.

Without --lat and --lon the configured device location is used
(PARKSPOT_LAT / PARKSPOT_LON).`,
	RunE: runSpotAdd,
}

var spotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spots",
	RunE:  runSpotList,
}

var spotToggleCmd = &cobra.Command{
	Use:   "toggle [spot-id]",
	Short: "Flip a spot you own between available and occupied",
	Long: `Flip a spot you own between available and occupied.

Without a spot id, pick one of your spots from a menu.`,
	Args: cobra.MaximumNArgs(1),
	RunE:  runSpotToggle,
}

var spotRemoveCmd = &cobra.Command{
	Use:   "rm [spot-id]",
	Short: "Remove a spot you own",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpotRemove,
}

func init() {
	spotAddCmd.Flags().Float64Var(&spotLat, "lat", 0, "Latitude")
	spotAddCmd.Flags().Float64Var(&spotLon, "lon", 0, "Longitude")
	spotAddCmd.Flags().StringVarP(&spotDescription, "description", "d", "", "Optional note, e.g. \"behind the bank\"")
	spotListCmd.Flags().BoolVar(&spotListMine, "mine", false, "Only spots you created")
	spotListCmd.Flags().StringVar(&spotListUser, "user", "", "Only spots created by this user id")
	spotToggleCmd.Flags().BoolVar(&spotAvailable, "available", false, "Set this state instead of flipping")
	spotRemoveCmd.Flags().BoolVarP(&spotRemoveYes, "yes", "y", false, "Do not ask for confirmation")
	spotCmd.AddCommand(spotAddCmd, spotListCmd, spotToggleCmd, spotRemoveCmd)
}

func requireProfile(ctx context.Context, a *app.App) (*models.User, error) {
	user, err := a.Identity.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: run 'parkspot profile set <name>' first", apperr.ErrNoProfile)
	}
	return user, nil
}

func runSpotAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := requireProfile(ctx, a)
	if err != nil {
		return err
	}

	spot := models.ParkingSpot{
		Available:   true,
		UserID:      user.ID,
		UserName:    user.Name,
		Description: spotDescription,
	}

	explicit, err := explicitCoordinates(cmd)
	if err != nil {
		return err
	}
	if explicit {
		spot.Latitude, spot.Longitude = spotLat, spotLon
	} else {
		pos, err := a.Location.CurrentPosition(ctx)
		if err != nil {
			if errors.Is(err, apperr.ErrPermissionDenied) {
				return fmt.Errorf("location unavailable: pass --lat and --lon or set PARKSPOT_LAT/PARKSPOT_LON")
			}
			return err
		}
		spot.Latitude, spot.Longitude = pos.Latitude, pos.Longitude
	}

	if err := a.Spots.Create(ctx, &spot); err != nil {
		return err
	}
	fmt.Printf("✓ Spot %s marked available at %.5f, %.5f\n", spot.ID, spot.Latitude, spot.Longitude)
	return nil
}

// explicitCoordinates reports whether --lat and --lon were both given.
// Giving only one of them is an error.
func explicitCoordinates(cmd *cobra.Command) (bool, error) {
	lat, lon := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if lat != lon {
		return false, fmt.Errorf("--lat and --lon must be given together")
	}
	return lat, nil
}

func runSpotList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	soft := spots.NewSoftRepository(a.Spots)

	userID := spotListUser
	if spotListMine {
		user, err := requireProfile(ctx, a)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	var list []models.ParkingSpot
	if userID != "" {
		list = soft.ListByUser(ctx, userID)
	} else {
		list = soft.List(ctx)
	}

	printSpots(list)
	return nil
}

func printSpots(list []models.ParkingSpot) {
	if len(list) == 0 {
		fmt.Println("No spots")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tLAT\tLON\tBY\tUPDATED\tNOTE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\t%s\t%s\t%s\n",
			s.ID,
			s.StatusLabel(),
			s.Latitude,
			s.Longitude,
			s.UserName,
			s.UpdatedAt().Format("2006-01-02 15:04:05"),
			s.Description,
		)
	}
	tw.Flush()
}

// ownedSpot fetches id and checks the current user created it
func ownedSpot(ctx context.Context, a *app.App, id string) (*models.ParkingSpot, error) {
	user, err := requireProfile(ctx, a)
	if err != nil {
		return nil, err
	}
	spot, err := a.Spots.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !spot.OwnedBy(user.ID) {
		return nil, fmt.Errorf("spot %s belongs to %s: %w", id, spot.UserName, apperr.ErrForbidden)
	}
	return spot, nil
}

func runSpotToggle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	id := ""
	if len(args) == 1 {
		id = args[0]
	} else {
		id, err = pickOwnSpot(ctx, a)
		if err != nil || id == "" {
			return err
		}
	}

	spot, err := ownedSpot(ctx, a, id)
	if err != nil {
		return err
	}

	available := !spot.Available
	if cmd.Flags().Changed("available") {
		available = spotAvailable
	}

	if err := a.Spots.SetAvailability(ctx, spot.ID, available); err != nil {
		return err
	}
	spot.Available = available
	fmt.Printf("✓ Spot %s is now %s\n", spot.ID, ui.Status(*spot))
	return nil
}

func runSpotRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	spot, err := ownedSpot(ctx, a, args[0])
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			fmt.Printf("Spot %s already removed\n", args[0])
			return nil
		}
		return err
	}

	if !spotRemoveYes && ui.Interactive() {
		ok, err := ui.Confirm(
			fmt.Sprintf("Remove spot %s?", spot.ID),
			ui.WithDescription(describeSpot(*spot)),
			ui.WithLabels("Remove", "Keep"),
			ui.WithDefaultNo(),
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := a.Spots.Remove(ctx, spot.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Spot %s removed\n", spot.ID)
	return nil
}

// pickOwnSpot shows the current user's spots in a menu. An empty id means
// the user cancelled.
func pickOwnSpot(ctx context.Context, a *app.App) (string, error) {
	if !ui.Interactive() {
		return "", fmt.Errorf("spot id required when not running in a terminal")
	}

	user, err := requireProfile(ctx, a)
	if err != nil {
		return "", err
	}
	mine, err := a.Spots.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(mine) == 0 {
		fmt.Println("You have no spots, add one with 'parkspot spot add'")
		return "", nil
	}

	options := make([]ui.SelectOption, 0, len(mine))
	for _, s := range mine {
		options = append(options, ui.SelectOption{
			Label:       fmt.Sprintf("%s  %s", s.ID, s.StatusLabel()),
			Description: describeSpot(s),
			Value:       s.ID,
		})
	}

	choice, err := ui.Select("Which spot?", options)
	if err != nil || choice == nil {
		return "", err
	}
	return choice.Value, nil
}

func describeSpot(s models.ParkingSpot) string {
	desc := fmt.Sprintf("%.5f, %.5f", s.Latitude, s.Longitude)
	if s.Description != "" {
		desc += " · " + s.Description
	}
	return desc
}
