package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamikazebr/parkspot/internal/feed"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow spot availability live",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if a.Syncer == nil {
		return fmt.Errorf("live updates need the remote store, drop --offline")
	}

	sub, err := a.Syncer.Subscribe(ctx, func(s feed.Snapshot) {
		fmt.Printf("\n[%s] %d spots (+%d ~%d -%d)\n",
			s.ReadTime.Format("15:04:05"),
			len(s.Spots),
			len(s.Delta.Added),
			len(s.Delta.Modified),
			len(s.Delta.Removed),
		)
		printSpots(s.Spots)
	})
	if err != nil {
		return err
	}
	defer sub.Stop()

	fmt.Println("Watching spots, press Ctrl+C to stop")
	select {
	case <-ctx.Done():
		return nil
	case <-sub.Done():
		return sub.Err()
	}
}
