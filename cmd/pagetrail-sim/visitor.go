package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pagetrail/api/localstore"
	"pagetrail/api/tracker"
)

var visitorCmd = &cobra.Command{
	Use:   "visitor-id",
	Short: "Print the persisted visitor id, creating it if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open(flags.storePath)
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Fprintln(cmd.OutOrStdout(), tracker.GetOrCreateVisitorID(localEnvironment(), store, logger))
		return nil
	},
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pagetrail", "local.db")
}

// localEnvironment describes the machine running the simulator in the terms
// the fingerprint expects.
func localEnvironment() tracker.StaticEnvironment {
	_, offset := time.Now().Zone()
	host, _ := os.Hostname()
	return tracker.StaticEnvironment{
		Agent:    userAgent,
		Lang:     envOr("LANG", "en-US"),
		Width:    screenWidth,
		Height:   screenHeight,
		TZOffset: -offset / 60,
		Canvas:   host,
	}
}
