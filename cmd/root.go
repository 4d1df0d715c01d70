// Package cmd defines and implements the CLI commands for the rfp-radar
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rfp-radar/internal/app"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is the application factory. It's a variable so tests can replace it
// with a mock factory.
var newApp = func(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfgFile)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfp-radar",
		Short: "Discovers and scores government RFP opportunities.",
		Long: `rfp-radar polls federal APIs, government technology procurement
portals, and procurement feeds for new RFP opportunities, scores them for
relevance, and keeps a deduplicated history in Postgres.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default relies on RFPRADAR_* env vars)")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newArchiveCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
