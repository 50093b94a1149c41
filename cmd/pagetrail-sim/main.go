// Command pagetrail-sim drives a tracker controller through a scripted
// browsing session against a running pagetrail API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type globalFlags struct {
	apiURL    string
	apiKey    string
	storePath string
	verbose   bool
}

var (
	flags  globalFlags
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "pagetrail-sim",
	Short:         "Simulate a visitor browsing a tracked application",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(flags.verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api", envOr("PAGETRAIL_API_URL", "http://localhost:8080/api/v1"), "tracking API base URL")
	pf.StringVar(&flags.apiKey, "api-key", os.Getenv("TRACKING_API_KEY"), "publishable tracking key")
	pf.StringVar(&flags.storePath, "store", defaultStorePath(), "SQLite file holding the visitor id")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(browseCmd, visitorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
