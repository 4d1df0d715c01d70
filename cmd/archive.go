package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newArchiveCmd creates the 'archive' subcommand: a one-shot retention
// sweep for cron-style scheduling.
func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archives opportunities not seen within the retention window",
		Long: `Flips active opportunities whose last sighting is older than
retention.archive_after_days to archived status. Rows are never deleted.`,

		RunE: runArchiveCommand,
	}
}

func runArchiveCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	archived, err := a.Archive(cmd.Context())
	if err != nil {
		return fmt.Errorf("archive sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "archived %d opportunities older than %d days\n",
		archived, a.Config.Retention.ArchiveAfterDays)
	return nil
}
