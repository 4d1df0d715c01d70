package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// newScanCmd creates the 'scan' subcommand. It runs exactly one scrape
// session and exits non-zero only when the session fails outright.
func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Runs one scrape session and exits",
		Long: `Fetches every configured source once, scores and stores the results,
and writes the session record. Partial source failures still exit zero;
only a failed session (health check down or every source failed) is
treated as a command failure.`,

		RunE: runScanCommand,
	}
}

func runScanCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	session, err := a.Runner.Run(cmd.Context(), rfp.SessionManual)
	if err != nil {
		return fmt.Errorf("scan session %s: %w", session.ID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "session %s finished: status=%s opportunities=%d duration=%s\n",
		session.ID, session.Status, session.OpportunitiesFound, session.Duration.Round(timePrecision))
	if session.ErrorSummary != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "warnings: %s\n", session.ErrorSummary)
	}
	return nil
}
