package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamikazebr/parkspot/pkg/logger"
	"github.com/kamikazebr/parkspot/pkg/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or set the name other users see on your spots",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Set your display name",
	Long: `Set your display name.

The first call creates your user id. Spots you already marked keep the
name they were created with.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Identity.GetCurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("No profile yet")
		fmt.Println("\nRun 'parkspot profile set <name>' to create one")
		return nil
	}

	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("User ID: %s\n", user.ID)
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Identity.GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		user = &models.User{}
	}
	user.Name = strings.Join(args, " ")

	if err := a.Identity.SaveCurrentUser(ctx, user); err != nil {
		return err
	}

	// Give the remote mirror a moment before the process exits
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Identity.Flush(flushCtx); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("profile saved locally, remote copy still pending")
	}

	fmt.Printf("✓ Profile saved: %s (%s)\n", user.Name, user.ID)
	return nil
}
